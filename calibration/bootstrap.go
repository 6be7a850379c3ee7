package calibration

import (
	"fmt"
	"math"
	"sort"

	"github.com/meenmo/cubecal/logging"
	"github.com/meenmo/cubecal/model"
	"github.com/meenmo/cubecal/solver"
	"github.com/meenmo/cubecal/swaption"
	"github.com/meenmo/cubecal/volcube"
)

// BootstrapCalibration produces initial SABR tables from cash-settled premiums
// and physically settled ATM volatilities without pricing any replication
// integral. Each quoted node gets an independent smile fit.
type BootstrapCalibration struct {
	payer    *swaption.Lattice
	receiver *swaption.Lattice
	atm      *swaption.Lattice
	model    *model.Model
	cfg      Config
	logger   logging.Logger
}

// NewBootstrapCalibration checks that all three lattices describe the same swaps.
func NewBootstrapCalibration(payer, receiver, atm *swaption.Lattice, m *model.Model, cfg Config) (*BootstrapCalibration, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("NewBootstrapCalibration: %w", err)
	}
	if err := checkBootstrapLattices(payer, receiver, atm); err != nil {
		return nil, fmt.Errorf("NewBootstrapCalibration: %w", err)
	}
	return &BootstrapCalibration{
		payer:    payer,
		receiver: receiver,
		atm:      atm,
		model:    m,
		cfg:      cfg,
		logger:   logging.Default(),
	}, nil
}

func checkBootstrapLattices(payer, receiver, atm *swaption.Lattice) error {
	if payer.Convention() != swaption.PayerPrice {
		return fmt.Errorf("payer lattice is %s: %w", payer.Convention(), ErrQuotingConvention)
	}
	if receiver.Convention() != swaption.ReceiverPrice {
		return fmt.Errorf("receiver lattice is %s: %w", receiver.Convention(), ErrQuotingConvention)
	}
	if atm == nil {
		return ErrMissingATM
	}
	if atm.Convention() != swaption.PayerNormalVolatility {
		return fmt.Errorf("ATM lattice is %s: %w", atm.Convention(), ErrQuotingConvention)
	}
	if !payer.SameConventions(receiver) || !payer.SameConventions(atm) {
		return ErrIncompatibleLattices
	}
	return nil
}

func (b *BootstrapCalibration) SetLogger(l logging.Logger) {
	if l != nil {
		b.logger = l
	}
}

// ImpliedVolatilityLattice returns the synthesized physically settled smile of
// every quoted node as a normal volatility lattice keyed by strike minus forward.
func ImpliedVolatilityLattice(payer, receiver, atm *swaption.Lattice, m *model.Model) (*swaption.Lattice, error) {
	if err := checkBootstrapLattices(payer, receiver, atm); err != nil {
		return nil, fmt.Errorf("ImpliedVolatilityLattice: %w", err)
	}
	smiles, _, err := synthesizeSmiles(payer, receiver, atm, m, nil)
	if err != nil {
		return nil, fmt.Errorf("ImpliedVolatilityLattice: %w", err)
	}
	quotes := make(map[swaption.Key]float64)
	for n, smile := range smiles {
		for bp, vol := range smile {
			quotes[swaption.Key{Moneyness: bp, Maturity: n.Maturity, Tenor: n.Tenor}] = vol
		}
	}
	return payer.WithQuotes(swaption.PayerNormalVolatility, quotes)
}

// impliedCashVolatility inverts P(0,Ts)·Ac(S0)·Bachelier for a cash-settled premium.
func impliedCashVolatility(price float64, mkt nodeMarket, strike float64, call bool) (float64, error) {
	scale := mkt.settlementDiscount * mkt.cash.Value(mkt.forward)
	if scale <= 0 || math.IsNaN(scale) {
		return 0, fmt.Errorf("cash annuity factor %v: %w", scale, volcube.ErrNoImpliedVolatility)
	}
	return volcube.ImpliedNormalVolatility(price/scale, mkt.forward, strike, mkt.expiry, call)
}

// halfSmile holds the implied volatilities of one side, keyed by strike
// minus forward in basis points.
type halfSmile map[int]float64

// atm returns the side's ATM volatility, falling back to other and then phys.
func (h halfSmile) atm(other halfSmile, phys float64) float64 {
	if v, ok := h[0]; ok {
		return v
	}
	if v, ok := other[0]; ok {
		return v
	}
	return phys
}

// synthesizeSmiles builds the shifted smile of every quoted node accepted by
// keep, or of every quoted node when keep is nil.
func synthesizeSmiles(payer, receiver, atm *swaption.Lattice, m *model.Model, keep func(swaption.NodeKey) bool) (map[swaption.NodeKey]map[int]float64, map[swaption.NodeKey]nodeMarket, error) {
	markets := make(map[swaption.NodeKey]nodeMarket)
	market := func(n swaption.NodeKey) (nodeMarket, error) {
		if mkt, ok := markets[n]; ok {
			return mkt, nil
		}
		mkt, err := marketAt(payer, n, m)
		if err != nil {
			return nodeMarket{}, fmt.Errorf("%+v: %w", n, err)
		}
		markets[n] = mkt
		return mkt, nil
	}

	payers := make(map[swaption.NodeKey]halfSmile)
	receivers := make(map[swaption.NodeKey]halfSmile)
	for _, side := range []struct {
		lattice *swaption.Lattice
		smiles  map[swaption.NodeKey]halfSmile
		sign    int
	}{
		{payer, payers, 1},
		{receiver, receivers, -1},
	} {
		for _, k := range side.lattice.Keys() {
			if keep != nil && !keep(k.Node()) {
				continue
			}
			mkt, err := market(k.Node())
			if err != nil {
				return nil, nil, err
			}
			price, _ := side.lattice.Value(k)
			bp := side.sign * k.Moneyness
			vol, err := impliedCashVolatility(price, mkt, mkt.forward+float64(bp)/1e4, side.sign > 0)
			if err != nil {
				return nil, nil, fmt.Errorf("%+v: %w", k, err)
			}
			if side.smiles[k.Node()] == nil {
				side.smiles[k.Node()] = halfSmile{}
			}
			side.smiles[k.Node()][bp] = vol
		}
	}

	smiles := make(map[swaption.NodeKey]map[int]float64, len(markets))
	for n := range markets {
		phys, ok := atm.Value(swaption.Key{Moneyness: 0, Maturity: n.Maturity, Tenor: n.Tenor})
		if !ok {
			return nil, nil, fmt.Errorf("%+v: %w", n, ErrMissingATM)
		}
		p, r := payers[n], receivers[n]
		payerShift := phys - p.atm(r, phys)
		receiverShift := phys - r.atm(p, phys)

		smile := map[int]float64{0: phys}
		// the payer side owns positive moneyness and the receiver side negative;
		// the other side only fills strikes its counterpart does not quote
		for bp, vol := range r {
			if bp < 0 {
				smile[bp] = vol + receiverShift
			}
		}
		for bp, vol := range p {
			if bp > 0 {
				smile[bp] = vol + payerShift
			}
		}
		for bp, vol := range r {
			if _, ok := smile[bp]; !ok {
				smile[bp] = vol + receiverShift
			}
		}
		for bp, vol := range p {
			if _, ok := smile[bp]; !ok {
				smile[bp] = vol + payerShift
			}
		}
		smiles[n] = smile
	}
	return smiles, markets, nil
}

// Run fits every retained grid node, longest maturity and tenor first unless
// the order is ShortestFirst, each fit starting from the previous node's
// result. Other grid nodes copy the parameters of the fit preceding them.
func (b *BootstrapCalibration) Run() (*SABRTables, error) {
	grid := NewNodeTable(b.payer, b.receiver)
	tables, err := NewSABRTables(grid, b.payer, b.model)
	if err != nil {
		return nil, fmt.Errorf("Bootstrap: %w", err)
	}
	smiles, _, err := synthesizeSmiles(b.payer, b.receiver, b.atm, b.model, grid.Retained)
	if err != nil {
		return nil, fmt.Errorf("Bootstrap: %w", err)
	}

	nodes := grid.Nodes()
	if b.cfg.MaturityOrder != ShortestFirst {
		for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
			nodes[i], nodes[j] = nodes[j], nodes[i]
		}
	}

	var (
		warm    [3]float64
		started bool
		pending []swaption.NodeKey
		fitted  int
	)
	for _, n := range nodes {
		smile := smiles[n]
		if len(smile) == 0 {
			if started {
				tables.SetParameters(n, warm[0], warm[1], warm[2])
			} else {
				pending = append(pending, n)
			}
			continue
		}
		forward, _ := tables.SwapRate(n)
		maturity, _, _ := tables.Coordinates(n)
		if !started {
			warm = b.firstGuess(forward, smile[0])
		}

		start := warm
		p, err := b.fitNode(forward, maturity, smile, start)
		if err != nil {
			return nil, fmt.Errorf("Bootstrap %+v: %w", n, err)
		}
		tables.SetParameters(n, p[0], p[1], p[2])
		b.logger.Debug("bootstrap node fitted",
			logging.Int("maturity", n.Maturity),
			logging.Int("tenor", n.Tenor),
			logging.Floats("initial", start[:]),
			logging.Floats("parameters", p[:]))

		warm = p
		fitted++
		if !started {
			started = true
			for _, h := range pending {
				tables.SetParameters(h, p[0], p[1], p[2])
			}
			pending = nil
		}
	}
	if fitted == 0 {
		return nil, fmt.Errorf("Bootstrap: %w", ErrNoTargets)
	}
	b.logger.Info("bootstrap finished", logging.Int("nodes", len(nodes)), logging.Int("fitted", fitted))
	return tables, nil
}

// firstGuess inverts the leading term σN ≈ α·(F+d)^β at the money.
func (b *BootstrapCalibration) firstGuess(forward, atmVol float64) [3]float64 {
	base := atmVol
	if shifted := forward + b.cfg.SABRDisplacement; shifted > 0 {
		base = atmVol / math.Pow(shifted, b.cfg.SABRBeta)
	}
	return [3]float64{0, base, 0.2}
}

func (b *BootstrapCalibration) fitNode(forward, maturity float64, smile map[int]float64, initial [3]float64) ([3]float64, error) {
	bps := make([]int, 0, len(smile))
	for bp := range smile {
		bps = append(bps, bp)
	}
	sort.Ints(bps)
	vols := make([]float64, len(bps))
	for i, bp := range bps {
		vols[i] = smile[bp]
	}

	beta, displacement := b.cfg.SABRBeta, b.cfg.SABRDisplacement
	residual := func(params, values []float64) error {
		p := SABRBounds(params)
		for i, bp := range bps {
			values[i] = volcube.SABRNormalVol(forward, forward+float64(bp)/1e4, maturity, p[1], beta, p[0], p[2], displacement)
		}
		return nil
	}

	var s solver.Solver
	if b.cfg.BootstrapMethod == BootstrapNelderMead {
		nm := solver.NewNelderMead(initial[:], vols, b.cfg.BootstrapIterations)
		nm.SetSimplexSize(0.01)
		s = nm
	} else {
		lm := solver.NewLevenbergMarquardt(initial[:], vols, b.cfg.BootstrapIterations, 1)
		lm.SetErrorTolerance(1e-10)
		s = lm
	}
	if err := s.Run(residual); err != nil {
		return [3]float64{}, err
	}
	best := SABRBounds(s.BestFitParameters())
	return [3]float64{best[0], best[1], best[2]}, nil
}
