// Package billing renders the HTML bill for a payment.
package billing

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nexvent/nexvent/internal/domain"
	"github.com/nexvent/nexvent/internal/repository"
)

var ErrPaymentNotFound = errors.New("payment not found")

//go:embed bill.tmpl
var billFS embed.FS

var billTmpl = template.Must(
	template.New("bill.tmpl").Funcs(template.FuncMap{
		"formatDate": func(t time.Time) string { return t.Format("02/01/2006") },
		"upper":      func(v any) string { return strings.ToUpper(fmt.Sprint(v)) },
		"money":      func(d decimal.Decimal) string { return d.StringFixed(2) },
	}).ParseFS(billFS, "bill.tmpl"),
)

// BillStore loads the receipt snapshot for a payment owned by the caller.
type BillStore interface {
	GetBillData(ctx context.Context, id uuid.UUID, userID int64) (*domain.BillData, error)
}

type Service struct {
	store BillStore
}

func New(store BillStore) *Service {
	return &Service{store: store}
}

// Render produces the HTML bill for one of the user's payments. A payment
// owned by another user is reported as not found.
func (s *Service) Render(ctx context.Context, userID int64, paymentID uuid.UUID) ([]byte, error) {
	const op = "service.billing.Render"

	data, err := s.store.GetBillData(ctx, paymentID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrPaymentNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var buf bytes.Buffer
	if err := billTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return buf.Bytes(), nil
}
