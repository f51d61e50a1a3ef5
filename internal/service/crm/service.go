// Package crm is the record store boundary used by the agent tools. Every
// error leaving this package is an *apperr.Error.
package crm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jmehdipour/crm-tools/internal/apperr"
	"github.com/jmehdipour/crm-tools/internal/db"
	"github.com/jmehdipour/crm-tools/internal/metrics"
	"github.com/jmehdipour/crm-tools/internal/model"
	"github.com/jmehdipour/crm-tools/internal/query"
	"github.com/jmehdipour/crm-tools/internal/repository"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type Service struct {
	db        *sqlx.DB
	customers repository.CustomersRepository
	messages  repository.MessagesRepository
	gate      *query.Gate
	log       *zap.Logger

	now func() time.Time
}

// New constructs the CRM service.
func New(
	conn *sqlx.DB,
	customersRepo repository.CustomersRepository,
	messagesRepo repository.MessagesRepository,
	gate *query.Gate,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:        conn,
		customers: customersRepo,
		messages:  messagesRepo,
		gate:      gate,
		log:       log,
		now:       time.Now,
	}
}

// NewFromDB wires the default repositories and gate over one handle.
func NewFromDB(conn *sqlx.DB, policy query.Policy, log *zap.Logger) *Service {
	return New(
		conn,
		repository.NewCustomersRepository(conn),
		repository.NewMessagesRepository(conn),
		query.NewGate(conn, policy, log),
		log,
	)
}

func (s *Service) AddCustomer(ctx context.Context, name, email string) (int64, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return 0, apperr.InvalidArgument("name must not be empty")
	}
	if email == "" {
		return 0, apperr.InvalidArgument("email must not be empty")
	}

	id, err := s.customers.Insert(ctx, nil, name, email)
	if db.IsUniqueViolation(err) {
		return 0, apperr.Wrap(apperr.CodeDuplicateEmail, err, "customer with email %s already exists", email)
	}
	if err != nil {
		return 0, s.storage(err, "add customer")
	}
	s.log.Info("customer added", zap.Int64("customer_id", id), zap.String("email", email))
	return id, nil
}

func (s *Service) GetCustomerByID(ctx context.Context, id int64) (*model.Customer, error) {
	if id <= 0 {
		return nil, apperr.InvalidArgument("customer_id must be positive")
	}
	c, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, s.storage(err, "get customer")
	}
	if c == nil {
		return nil, apperr.New(apperr.CodeNotFound, "customer %d not found", id)
	}
	return c, nil
}

func (s *Service) GetCustomerByEmail(ctx context.Context, email string) (*model.Customer, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperr.InvalidArgument("email must not be empty")
	}
	c, err := s.customers.GetByEmail(ctx, email)
	if err != nil {
		return nil, s.storage(err, "get customer")
	}
	if c == nil {
		return nil, apperr.New(apperr.CodeNotFound, "customer with email %s not found", email)
	}
	return c, nil
}

// EnsureCustomer returns the customer with email, creating it when absent.
// A concurrent insert of the same email is resolved by reading it back.
func (s *Service) EnsureCustomer(ctx context.Context, email, name string) (*model.Customer, bool, error) {
	c, err := s.GetCustomerByEmail(ctx, email)
	if err == nil {
		return c, false, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, false, err
	}

	if strings.TrimSpace(name) == "" {
		name = localPart(email)
	}
	id, err := s.AddCustomer(ctx, name, email)
	if errors.Is(err, apperr.ErrDuplicateEmail) {
		c, err := s.GetCustomerByEmail(ctx, email)
		return c, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return &model.Customer{ID: id, Name: strings.TrimSpace(name), Email: strings.TrimSpace(email)}, true, nil
}

// LogMessage stamps the message with the current UTC time. The existence
// check and the insert share one transaction.
func (s *Service) LogMessage(ctx context.Context, customerID int64, direction, content string) (int64, error) {
	if customerID <= 0 {
		return 0, apperr.InvalidArgument("customer_id must be positive")
	}
	if strings.TrimSpace(content) == "" {
		return 0, apperr.InvalidArgument("content must not be empty")
	}
	dir, known := model.ParseDirection(direction)
	if !known {
		s.log.Warn("unknown message direction", zap.String("direction", direction), zap.Int64("customer_id", customerID))
	}

	msg := model.Message{
		CustomerID: customerID,
		Timestamp:  model.FormatTimestamp(s.now()),
		Direction:  dir,
		Content:    content,
	}

	var id int64
	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		ok, err := s.customers.Exists(ctx, tx, customerID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.CodeStorage, "customer %d does not exist", customerID)
		}
		id, err = s.messages.Insert(ctx, tx, msg)
		return err
	})
	if db.IsForeignKeyViolation(err) {
		return 0, apperr.Wrap(apperr.CodeStorage, err, "customer %d does not exist", customerID)
	}
	if err != nil {
		return 0, s.storage(err, "log message")
	}

	label := dir.String()
	if !known {
		label = "other"
	}
	metrics.MessagesLoggedTotal.WithLabelValues(label).Inc()
	s.log.Debug("message logged", zap.Int64("message_id", id), zap.Int64("customer_id", customerID))
	return id, nil
}

func (s *Service) GetMessagesForCustomer(ctx context.Context, customerID int64) ([]model.Message, error) {
	if customerID <= 0 {
		return nil, apperr.InvalidArgument("customer_id must be positive")
	}
	out, err := s.messages.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, s.storage(err, "get messages")
	}
	return out, nil
}

func (s *Service) GetCustomersWithNoMessages(ctx context.Context) ([]model.Customer, error) {
	out, err := s.customers.ListWithoutMessages(ctx)
	if err != nil {
		return nil, s.storage(err, "customers without messages")
	}
	return out, nil
}

// GetCustomersWithLastMessageBefore normalizes threshold into the stored
// timestamp layout before comparing.
func (s *Service) GetCustomersWithLastMessageBefore(ctx context.Context, threshold string) ([]model.Customer, error) {
	norm, err := model.NormalizeTimestamp(threshold)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInvalidArgument, err, "threshold %q is not an ISO-8601 date-time", threshold)
	}
	out, err := s.customers.ListWithLastMessageBefore(ctx, norm)
	if err != nil {
		return nil, s.storage(err, "customers with last message before")
	}
	return out, nil
}

// QueryTable runs model-written SQL through the safe query gate.
func (s *Service) QueryTable(ctx context.Context, table, sql string) ([]model.Row, error) {
	return s.gate.Execute(ctx, table, sql)
}

// storage passes classified errors through and wraps everything else.
func (s *Service) storage(err error, op string) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	s.log.Error("storage failure", zap.String("op", op), zap.Error(err))
	return apperr.Storage(err, op)
}

func localPart(email string) string {
	email = strings.TrimSpace(email)
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
