package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/taylorbuilt/drawline/internal/clock"
	"github.com/taylorbuilt/drawline/internal/config"
	projectdomain "github.com/taylorbuilt/drawline/internal/project/domain"
	"github.com/taylorbuilt/drawline/internal/project/format"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

type ServiceParam struct {
	fx.In

	Store   projectdomain.Store
	Log     *zap.Logger
	Clock   clock.Clock
	GenID   *snowflake.Node
	Billing *config.BillingConfigHolder
}

type Service struct {
	store   projectdomain.Store
	log     *zap.Logger
	clock   clock.Clock
	genID   *snowflake.Node
	billing *config.BillingConfigHolder

	// Serializes mutations per estimate ID. The store itself has no
	// cross-call locking, so two concurrent read-modify-writes on the
	// same ledger would lose a draw.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(p ServiceParam) projectdomain.Service {
	return &Service{
		store:   p.Store,
		log:     p.Log.Named("project.service"),
		clock:   p.Clock,
		genID:   p.GenID,
		billing: p.Billing,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (s *Service) lockProject(estimateID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[estimateID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[estimateID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func (s *Service) load(ctx context.Context, estimateID string) (projectdomain.ProjectLedger, bool, error) {
	raw, ok, err := s.store.Get(ctx, estimateID)
	if err != nil {
		return projectdomain.ProjectLedger{}, false, err
	}
	if !ok {
		return projectdomain.ProjectLedger{}, false, nil
	}

	var ledger projectdomain.ProjectLedger
	if err := json.Unmarshal([]byte(raw), &ledger); err != nil {
		return projectdomain.ProjectLedger{}, false, fmt.Errorf("decode ledger %s: %w", estimateID, err)
	}
	if ledger.Draws == nil {
		ledger.Draws = []projectdomain.Draw{}
	}
	return ledger, true, nil
}

func (s *Service) save(ctx context.Context, ledger projectdomain.ProjectLedger) error {
	raw, err := json.Marshal(ledger)
	if err != nil {
		return fmt.Errorf("encode ledger %s: %w", ledger.EstimateID, err)
	}
	return s.store.Set(ctx, ledger.EstimateID, string(raw))
}

func (s *Service) GetOrCreate(ctx context.Context, estimateID string) (projectdomain.ProjectLedger, error) {
	unlock := s.lockProject(estimateID)
	defer unlock()

	ledger, ok, err := s.load(ctx, estimateID)
	if err != nil {
		return projectdomain.ProjectLedger{}, err
	}
	if ok {
		return ledger, nil
	}

	ledger = projectdomain.NewLedger(estimateID, s.billing.Get().DefaultHoldback(), s.clock.Now())
	if err := s.save(ctx, ledger); err != nil {
		return projectdomain.ProjectLedger{}, err
	}
	s.log.Info("ledger created", zap.String("estimate_id", estimateID))
	return ledger, nil
}

func (s *Service) Initialize(ctx context.Context, est projectdomain.EstimateInput, holdbackPercent decimal.Decimal) (projectdomain.ProjectLedger, error) {
	unlock := s.lockProject(est.ID)
	defer unlock()

	ledger, ok, err := s.load(ctx, est.ID)
	if err != nil {
		return projectdomain.ProjectLedger{}, err
	}
	if !ok {
		ledger = projectdomain.NewLedger(est.ID, s.billing.Get().DefaultHoldback(), s.clock.Now())
	}

	// Metadata is overwritten on every call; draws and totals stay put.
	ledger.EstimateName = est.Name
	ledger.ClientName = est.ClientName
	ledger.CustomerRef = est.CustomerRef
	ledger.EstimateTotal = est.Total
	ledger.HoldbackPercent = holdbackPercent

	if err := s.save(ctx, ledger); err != nil {
		return projectdomain.ProjectLedger{}, err
	}

	s.log.Info("project initialized",
		zap.String("estimate_id", est.ID),
		zap.String("estimate_total", est.Total.String()),
		zap.String("holdback_percent", holdbackPercent.String()),
	)
	return ledger, nil
}

func (s *Service) Calculate(ctx context.Context, estimateID string, percentComplete decimal.Decimal) (projectdomain.Calculation, error) {
	ledger, _, err := s.load(ctx, estimateID)
	if err != nil {
		return projectdomain.Calculation{}, err
	}
	return s.calculate(ledger, percentComplete)
}

// calculate computes a draw against a loaded ledger without mutating it.
func (s *Service) calculate(ledger projectdomain.ProjectLedger, percentComplete decimal.Decimal) (projectdomain.Calculation, error) {
	if ledger.EstimateTotal.IsZero() {
		return projectdomain.Calculation{}, projectdomain.ErrProjectNotInitialized
	}

	percentComplete = clampPercent(percentComplete)

	totalToDate := ledger.EstimateTotal.Mul(percentComplete).Div(hundred)
	previouslyInvoiced := ledger.TotalInvoiced
	thisInvoiceGross := totalToDate.Sub(previouslyInvoiced)

	if thisInvoiceGross.IsNegative() && !s.billing.Get().AllowPercentRegression {
		return projectdomain.Calculation{}, projectdomain.ErrPercentRegression
	}

	holdbackAmount := thisInvoiceGross.Mul(ledger.HoldbackPercent).Div(hundred)

	return projectdomain.Calculation{
		PercentComplete:       percentComplete,
		EstimateTotal:         ledger.EstimateTotal,
		TotalToDate:           totalToDate,
		PreviouslyInvoiced:    previouslyInvoiced,
		ThisInvoiceGross:      thisInvoiceGross,
		HoldbackAmount:        holdbackAmount,
		NetPayable:            thisInvoiceGross.Sub(holdbackAmount),
		RemainingToBill:       ledger.EstimateTotal.Sub(totalToDate),
		CumulativePercent:     percentComplete,
		TotalHoldbackRetained: ledger.TotalHoldback.Add(holdbackAmount),
		DrawNumber:            len(ledger.Draws) + 1,
	}, nil
}

func (s *Service) CreateDraw(ctx context.Context, req projectdomain.CreateDrawRequest) (projectdomain.DrawResult, error) {
	unlock := s.lockProject(req.EstimateID)
	defer unlock()

	ledger, _, err := s.load(ctx, req.EstimateID)
	if err != nil {
		return projectdomain.DrawResult{}, err
	}

	calc, err := s.calculate(ledger, req.PercentComplete)
	if err != nil {
		return projectdomain.DrawResult{}, err
	}

	// A credit draw claws holdback back, but never holdback that has
	// already been paid out: released must stay <= total withheld.
	newTotalHoldback := ledger.TotalHoldback.Add(calc.HoldbackAmount)
	if newTotalHoldback.LessThan(ledger.HoldbackReleased) {
		return projectdomain.DrawResult{}, projectdomain.ErrInsufficientHoldback
	}

	now := s.clock.Now()

	invoiceNumber := req.InvoiceNumber
	if invoiceNumber == "" {
		ref := ledger.CustomerRef
		if ref == "" {
			ref = "INV"
		}
		invoiceNumber, err = format.FormatInvoiceNumber(s.billing.Get().InvoiceNumberTemplate, ref, now, calc.DrawNumber)
		if err != nil {
			return projectdomain.DrawResult{}, err
		}
	}

	percent := calc.PercentComplete
	draw := projectdomain.Draw{
		ID:                 s.genID.Generate(),
		DrawNumber:         calc.DrawNumber,
		Kind:               projectdomain.DrawKindProgress,
		InvoiceNumber:      invoiceNumber,
		Date:               now,
		PercentComplete:    &percent,
		GrossAmount:        calc.ThisInvoiceGross,
		HoldbackAmount:     calc.HoldbackAmount,
		NetPayable:         calc.NetPayable,
		HoldbackPercent:    ledger.HoldbackPercent,
		CumulativeInvoiced: calc.TotalToDate,
		CumulativePercent:  calc.CumulativePercent,
		RemainingToBill:    calc.RemainingToBill,
		Notes:              req.Notes,
	}

	ledger.Draws = append(ledger.Draws, draw)
	ledger.TotalInvoiced = calc.TotalToDate
	ledger.TotalHoldback = newTotalHoldback
	if calc.PercentComplete.GreaterThanOrEqual(hundred) {
		ledger.IsComplete = true
	}

	if err := s.save(ctx, ledger); err != nil {
		return projectdomain.DrawResult{}, err
	}

	s.log.Info("draw created",
		zap.String("estimate_id", req.EstimateID),
		zap.Int("draw_number", draw.DrawNumber),
		zap.String("invoice_number", draw.InvoiceNumber),
		zap.String("net_payable", draw.NetPayable.String()),
	)
	return projectdomain.DrawResult{Draw: draw, Project: ledger, Calculation: calc}, nil
}

func (s *Service) ReleaseHoldback(ctx context.Context, req projectdomain.ReleaseHoldbackRequest) (projectdomain.ReleaseResult, error) {
	unlock := s.lockProject(req.EstimateID)
	defer unlock()

	ledger, ok, err := s.load(ctx, req.EstimateID)
	if err != nil {
		return projectdomain.ReleaseResult{}, err
	}
	if !ok {
		return projectdomain.ReleaseResult{}, projectdomain.ErrProjectNotFound
	}

	if req.ReleaseAmount.GreaterThan(ledger.AvailableHoldback()) {
		return projectdomain.ReleaseResult{}, projectdomain.ErrInsufficientHoldback
	}

	now := s.clock.Now()
	drawNumber := len(ledger.Draws) + 1

	invoiceNumber := req.InvoiceNumber
	if invoiceNumber == "" {
		ref := ledger.CustomerRef
		if ref == "" {
			ref = "HB"
		}
		invoiceNumber, err = format.FormatInvoiceNumber(s.billing.Get().ReleaseNumberTemplate, ref, now, drawNumber)
		if err != nil {
			return projectdomain.ReleaseResult{}, err
		}
	}

	notes := req.Notes
	if notes == "" {
		notes = "Holdback Release"
	}

	draw := projectdomain.Draw{
		ID:                 s.genID.Generate(),
		DrawNumber:         drawNumber,
		Kind:               projectdomain.DrawKindHoldbackRelease,
		InvoiceNumber:      invoiceNumber,
		Date:               now,
		PercentComplete:    nil,
		GrossAmount:        decimal.Zero,
		HoldbackAmount:     req.ReleaseAmount.Neg(),
		NetPayable:         req.ReleaseAmount,
		HoldbackPercent:    ledger.HoldbackPercent,
		CumulativeInvoiced: ledger.TotalInvoiced,
		CumulativePercent:  percentOf(ledger.TotalInvoiced, ledger.EstimateTotal),
		RemainingToBill:    ledger.EstimateTotal.Sub(ledger.TotalInvoiced),
		Notes:              notes,
	}

	ledger.Draws = append(ledger.Draws, draw)
	ledger.HoldbackReleased = ledger.HoldbackReleased.Add(req.ReleaseAmount)

	if err := s.save(ctx, ledger); err != nil {
		return projectdomain.ReleaseResult{}, err
	}

	remaining := ledger.AvailableHoldback()
	s.log.Info("holdback released",
		zap.String("estimate_id", req.EstimateID),
		zap.Int("draw_number", draw.DrawNumber),
		zap.String("release_amount", req.ReleaseAmount.String()),
		zap.String("remaining_holdback", remaining.String()),
	)
	return projectdomain.ReleaseResult{Draw: draw, Project: ledger, RemainingHoldback: remaining}, nil
}

func (s *Service) MarkDrawPaid(ctx context.Context, estimateID string, drawNumber int, paidDate *time.Time) (projectdomain.Draw, error) {
	unlock := s.lockProject(estimateID)
	defer unlock()

	ledger, ok, err := s.load(ctx, estimateID)
	if err != nil {
		return projectdomain.Draw{}, err
	}
	if !ok {
		return projectdomain.Draw{}, projectdomain.ErrProjectNotFound
	}

	draw := ledger.FindDraw(drawNumber)
	if draw == nil {
		return projectdomain.Draw{}, projectdomain.ErrDrawNotFound
	}

	paid := s.clock.Now()
	if paidDate != nil {
		paid = paidDate.UTC()
	}
	draw.IsPaid = true
	draw.PaidDate = &paid

	if err := s.save(ctx, ledger); err != nil {
		return projectdomain.Draw{}, err
	}
	return *draw, nil
}

func (s *Service) ListProjects(ctx context.Context) ([]projectdomain.ProjectSummary, error) {
	keys, err := s.store.Keys(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]projectdomain.ProjectSummary, 0, len(keys))
	for _, key := range keys {
		ledger, ok, err := s.load(ctx, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		summaries = append(summaries, summarize(ledger))
	}
	return summaries, nil
}

func (s *Service) Get(ctx context.Context, estimateID string) (projectdomain.ProjectLedger, error) {
	ledger, ok, err := s.load(ctx, estimateID)
	if err != nil {
		return projectdomain.ProjectLedger{}, err
	}
	if !ok {
		return projectdomain.ProjectLedger{}, projectdomain.ErrProjectNotFound
	}
	return ledger, nil
}

func (s *Service) Delete(ctx context.Context, estimateID string) error {
	unlock := s.lockProject(estimateID)
	defer unlock()

	if err := s.store.Delete(ctx, estimateID); err != nil {
		return err
	}
	s.log.Info("project deleted", zap.String("estimate_id", estimateID))
	return nil
}

func (s *Service) Export(ctx context.Context, estimateID string) (string, error) {
	ledger, ok, err := s.load(ctx, estimateID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", projectdomain.ErrProjectNotFound
	}

	raw, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (s *Service) Import(ctx context.Context, data string) (projectdomain.ProjectLedger, error) {
	var ledger projectdomain.ProjectLedger
	if err := json.Unmarshal([]byte(data), &ledger); err != nil {
		return projectdomain.ProjectLedger{}, projectdomain.ErrInvalidProjectData
	}
	if ledger.EstimateID == "" {
		return projectdomain.ProjectLedger{}, projectdomain.ErrInvalidProjectData
	}
	if ledger.Draws == nil {
		ledger.Draws = []projectdomain.Draw{}
	}

	unlock := s.lockProject(ledger.EstimateID)
	defer unlock()

	if err := s.save(ctx, ledger); err != nil {
		return projectdomain.ProjectLedger{}, err
	}
	s.log.Info("project imported", zap.String("estimate_id", ledger.EstimateID), zap.Int("draws", len(ledger.Draws)))
	return ledger, nil
}

func summarize(ledger projectdomain.ProjectLedger) projectdomain.ProjectSummary {
	summary := projectdomain.ProjectSummary{
		EstimateID:       ledger.EstimateID,
		EstimateName:     ledger.EstimateName,
		ClientName:       ledger.ClientName,
		CustomerRef:      ledger.CustomerRef,
		EstimateTotal:    ledger.EstimateTotal,
		TotalInvoiced:    ledger.TotalInvoiced,
		PercentComplete:  percentOf(ledger.TotalInvoiced, ledger.EstimateTotal),
		TotalHoldback:    ledger.TotalHoldback,
		HoldbackReleased: ledger.HoldbackReleased,
		HoldbackRetained: ledger.AvailableHoldback(),
		RemainingToBill:  ledger.EstimateTotal.Sub(ledger.TotalInvoiced),
		DrawCount:        len(ledger.Draws),
		IsComplete:       ledger.IsComplete,
	}
	if n := len(ledger.Draws); n > 0 {
		last := ledger.Draws[n-1].Date
		summary.LastDrawDate = &last
	}
	return summary
}

// percentOf reports part/whole as a percentage, 0 when whole is zero.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

func clampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}
