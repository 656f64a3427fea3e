package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
)

type bankService interface {
	CreateAccount(ctx context.Context, name string, kind domain.AccountKind, initialBalance decimal.Decimal) (*domain.Account, error)
	Deposit(ctx context.Context, acct *domain.Account, amount decimal.Decimal) (decimal.Decimal, error)
	Withdraw(ctx context.Context, acct *domain.Account, amount decimal.Decimal) (decimal.Decimal, error)
	Transact(ctx context.Context, sender, recipient *domain.Account, amount decimal.Decimal) (decimal.Decimal, error)
	ChargeInterest(ctx context.Context, acct *domain.Account) (decimal.Decimal, error)
	Balance(ctx context.Context, acct *domain.Account) decimal.Decimal
	RenameAccount(ctx context.Context, acct *domain.Account, name string) error
	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	Accounts() []*domain.Account
	Transactions() []*domain.Transaction
}

type BankHandler struct {
	bank bankService
}

func NewBankHandler(bank bankService) *BankHandler {
	return &BankHandler{bank: bank}
}

type accountDTO struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Type    string    `json:"type"`
	Balance string    `json:"balance"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	return accountDTO{
		ID:      a.ID,
		Name:    a.Name,
		Type:    a.Kind.String(),
		Balance: a.Balance().StringFixed(2),
	}
}

type transactionDTO struct {
	ID        uuid.UUID  `json:"id"`
	Sender    *uuid.UUID `json:"sender"`
	Recipient *uuid.UUID `json:"recipient"`
	Amount    string     `json:"amount"`
}

func toTransactionDTO(t *domain.Transaction) transactionDTO {
	return transactionDTO{
		ID:        t.ID,
		Sender:    t.SenderID(),
		Recipient: t.RecipientID(),
		Amount:    t.Amount.Round(2).StringFixed(2),
	}
}

// balanceDTO carries the overdraft advisory, when the balance policy raised
// one, next to the committed balance.
type balanceDTO struct {
	Balance   string `json:"balance"`
	Overdraft string `json:"overdraft,omitempty"`
}

type createAccountRequest struct {
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

func (r createAccountRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if _, err := domain.ParseAccountKind(r.Type); err != nil {
		errs = append(errs, FieldError{Field: "type", Message: "must be consumer, checking, or savings"})
	}
	return errs
}

func (h *BankHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	kind, _ := domain.ParseAccountKind(req.Type)
	acct, err := h.bank.CreateAccount(r.Context(), req.Name, kind, req.InitialBalance)
	if err != nil && !domain.IsOverdraftAdvisory(err) {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toAccountDTO(acct))
}

func (h *BankHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.accountFromPath(w, r)
	if !ok {
		return
	}
	RespondSuccess(w, http.StatusOK, toAccountDTO(acct))
}

func (h *BankHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts := h.bank.Accounts()
	dtos := make([]accountDTO, 0, len(accounts))
	for _, a := range accounts {
		dtos = append(dtos, toAccountDTO(a))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *BankHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.accountFromPath(w, r)
	if !ok {
		return
	}
	balance := h.bank.Balance(r.Context(), acct)
	RespondSuccess(w, http.StatusOK, balanceDTO{Balance: balance.StringFixed(2)})
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *BankHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.bank.Deposit)
}

func (h *BankHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.bank.Withdraw)
}

func (h *BankHandler) move(w http.ResponseWriter, r *http.Request, op func(context.Context, *domain.Account, decimal.Decimal) (decimal.Decimal, error)) {
	acct, ok := h.accountFromPath(w, r)
	if !ok {
		return
	}

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	balance, err := op(r.Context(), acct, req.Amount)
	if err != nil && !domain.IsOverdraftAdvisory(err) {
		RespondDomainError(w, err)
		return
	}

	resp := balanceDTO{Balance: balance.StringFixed(2)}
	if err != nil {
		resp.Overdraft = err.Error()
	}
	RespondSuccess(w, http.StatusOK, resp)
}

type transferRequest struct {
	SenderID    uuid.UUID       `json:"sender_id"`
	RecipientID uuid.UUID       `json:"recipient_id"`
	Amount      decimal.Decimal `json:"amount"`
}

type transferResponse struct {
	Balance   string `json:"balance"`
	Fee       string `json:"fee"`
	Overdraft string `json:"overdraft,omitempty"`
}

func (h *BankHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	sender, err := h.bank.GetAccount(r.Context(), req.SenderID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	recipient, err := h.bank.GetAccount(r.Context(), req.RecipientID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	fee := req.Amount.Mul(sender.Policy().TransactionFee)
	balance, err := h.bank.Transact(r.Context(), sender, recipient, req.Amount)
	if err != nil && !domain.IsOverdraftAdvisory(err) {
		RespondDomainError(w, err)
		return
	}

	resp := transferResponse{
		Balance: balance.StringFixed(2),
		Fee:     fee.Round(2).StringFixed(2),
	}
	if err != nil {
		resp.Overdraft = err.Error()
	}
	RespondSuccess(w, http.StatusOK, resp)
}

type interestResponse struct {
	Interest  string `json:"interest"`
	Balance   string `json:"balance"`
	Overdraft string `json:"overdraft,omitempty"`
}

func (h *BankHandler) ChargeInterest(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.accountFromPath(w, r)
	if !ok {
		return
	}

	interest, err := h.bank.ChargeInterest(r.Context(), acct)
	if err != nil && !domain.IsOverdraftAdvisory(err) {
		RespondDomainError(w, err)
		return
	}

	resp := interestResponse{
		Interest: interest.Round(2).StringFixed(2),
		Balance:  acct.Balance().StringFixed(2),
	}
	if err != nil {
		resp.Overdraft = err.Error()
	}
	RespondSuccess(w, http.StatusOK, resp)
}

type renameRequest struct {
	Name string `json:"name"`
}

func (h *BankHandler) RenameAccount(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.accountFromPath(w, r)
	if !ok {
		return
	}

	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if req.Name == "" {
		RespondValidationError(w, []FieldError{{Field: "name", Message: "required"}})
		return
	}

	if err := h.bank.RenameAccount(r.Context(), acct, req.Name); err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toAccountDTO(acct))
}

func (h *BankHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	txn, err := h.bank.GetTransaction(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toTransactionDTO(txn))
}

func (h *BankHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions := h.bank.Transactions()
	dtos := make([]transactionDTO, 0, len(transactions))
	for _, t := range transactions {
		dtos = append(dtos, toTransactionDTO(t))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *BankHandler) accountFromPath(w http.ResponseWriter, r *http.Request) (*domain.Account, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return nil, false
	}

	acct, err := h.bank.GetAccount(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return nil, false
	}
	return acct, true
}
