// Package memory is a process-local ledger store. It keeps everything in
// maps guarded by one RWMutex and commits each atomic unit all at once.
//
// The store does not lock individual wallets: read-modify-write isolation
// comes from the per-wallet guard the engine holds around every unit.
package memory

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wallet-ledger/internal/domain/ledger"
	"github.com/wallet-ledger/internal/domain/outbox"
	"github.com/wallet-ledger/internal/domain/shared"
	"github.com/wallet-ledger/internal/domain/store"
	"github.com/wallet-ledger/internal/domain/user"
	"github.com/wallet-ledger/internal/domain/wallet"
)

var ErrDuplicateEmail = errors.New("email already registered")

// retainedEvents bounds the event log. Nothing relays events from this
// store, so only the most recent ones are kept for inspection.
const retainedEvents = 1024

type Store struct {
	mu           sync.RWMutex
	users        map[int64]*user.User
	wallets      map[int64]*wallet.Wallet
	transactions []*ledger.Transaction
	events       []*outbox.Message
	eventLimit   int
	lastEventID  int64

	nextUserID atomic.Int64
	nextTxID   atomic.Int64
}

var _ store.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		users:      make(map[int64]*user.User),
		wallets:    make(map[int64]*wallet.Wallet),
		eventLimit: retainedEvents,
	}
}

// AddUser registers a user in the directory. Emails are unique, case-insensitively.
func (s *Store) AddUser(name, email string, role shared.Role) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return nil, ErrDuplicateEmail
		}
	}
	u := &user.User{
		ID:        s.nextUserID.Add(1),
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	s.users[u.ID] = u
	return copyUser(u), nil
}

// Events returns the most recent ledger events in commit order.
func (s *Store) Events() []*outbox.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events)
}

func (s *Store) ExecuteTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	u := &unit{store: s, staged: make(map[int64]*wallet.Wallet)}
	if err := fn(ctx, u); err != nil {
		return err
	}
	return s.commit(u)
}

// commit applies every staged write or none of them.
func (s *Store) commit(u *unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range u.staged {
		if w.Balance < 0 {
			return wallet.ErrInsufficientFunds
		}
	}
	for id, w := range u.staged {
		s.wallets[id] = w
	}
	s.transactions = append(s.transactions, u.appended...)
	for _, msg := range u.events {
		s.lastEventID++
		msg.ID = s.lastEventID
		s.events = append(s.events, msg)
	}
	if n := len(s.events) - s.eventLimit; n > 0 {
		s.events = s.events[n:]
	}
	return nil
}

func (s *Store) Wallets() wallet.Reader      { return (*walletReader)(s) }
func (s *Store) Transactions() ledger.Reader { return (*transactionReader)(s) }
func (s *Store) Users() user.Directory       { return (*directory)(s) }

func (s *Store) BalanceSheet(context.Context) (store.BalanceSheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return store.BalanceSheet{
		TotalBalance: (*walletReader)(s).sum(),
		Totals:       (*transactionReader)(s).totals(),
	}, nil
}

type walletReader Store

func (r *walletReader) GetByUserID(_ context.Context, userID int64) (*wallet.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[userID]
	if !ok {
		return nil, wallet.ErrWalletNotFound{UserID: userID}
	}
	return copyWallet(w), nil
}

func (r *walletReader) SumBalances(context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sum(), nil
}

func (r *walletReader) sum() int64 {
	var total int64
	for _, w := range r.wallets {
		total += w.Balance
	}
	return total
}

func (r *walletReader) ListWithOwners(context.Context) ([]*wallet.Owned, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owned := make([]*wallet.Owned, 0, len(r.users))
	for _, u := range r.users {
		o := &wallet.Owned{
			UserID:    u.ID,
			Name:      u.Name,
			Email:     u.Email,
			Role:      string(u.Role),
			CreatedAt: u.CreatedAt,
		}
		if w, ok := r.wallets[u.ID]; ok {
			o.Balance = w.Balance
		}
		owned = append(owned, o)
	}
	slices.SortFunc(owned, func(a, b *wallet.Owned) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.UserID, a.UserID)
	})
	return owned, nil
}

type transactionReader Store

func (r *transactionReader) matching(filter ledger.Filter) []*ledger.Transaction {
	var out []*ledger.Transaction
	for _, t := range r.transactions {
		if filter.UserID == 0 || t.Involves(filter.UserID) {
			out = append(out, t)
		}
	}
	return out
}

func (r *transactionReader) List(_ context.Context, filter ledger.Filter) ([]*ledger.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	txs := r.matching(filter)

	slices.SortStableFunc(txs, func(a, b *ledger.Transaction) int {
		switch {
		case ledger.Newer(a, b):
			return -1
		case ledger.Newer(b, a):
			return 1
		}
		return 0
	})

	if filter.Limit > 0 {
		if filter.Offset >= len(txs) {
			return []*ledger.Transaction{}, nil
		}
		end := min(filter.Offset+filter.Limit, len(txs))
		txs = txs[filter.Offset:end]
	}

	out := make([]*ledger.Transaction, len(txs))
	for i, t := range txs {
		c := copyTransaction(t)
		c.FromUser = r.party(t.FromWallet)
		c.ToUser = r.party(t.ToWallet)
		out[i] = c
	}
	return out, nil
}

func (r *transactionReader) party(userID *int64) *ledger.Party {
	if userID == nil {
		return nil
	}
	u, ok := r.users[*userID]
	if !ok {
		return nil
	}
	return &ledger.Party{ID: u.ID, Name: u.Name, Email: u.Email}
}

func (r *transactionReader) Count(_ context.Context, filter ledger.Filter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.matching(filter))), nil
}

func (r *transactionReader) Totals(context.Context) (ledger.Totals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.totals(), nil
}

func (r *transactionReader) totals() ledger.Totals {
	var totals ledger.Totals
	for _, t := range r.transactions {
		if t.Status != shared.TransactionStatusCompleted {
			continue
		}
		switch t.Type {
		case shared.TransactionTypeDeposit:
			totals.Deposits += t.Amount
		case shared.TransactionTypeWithdraw:
			totals.Withdrawals += t.Amount
		}
	}
	return totals
}

type directory Store

func (d *directory) GetByID(_ context.Context, id int64) (*user.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	if !ok {
		return nil, user.ErrUserNotFound{ID: id}
	}
	return copyUser(u), nil
}

func (d *directory) GetByEmail(_ context.Context, email string) (*user.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	needle := strings.TrimSpace(email)
	for _, u := range d.users {
		if strings.EqualFold(u.Email, needle) {
			return copyUser(u), nil
		}
	}
	return nil, user.ErrUserNotFound{Email: email}
}

func copyWallet(w *wallet.Wallet) *wallet.Wallet {
	c := *w
	return &c
}

func copyUser(u *user.User) *user.User {
	c := *u
	return &c
}

func copyTransaction(t *ledger.Transaction) *ledger.Transaction {
	c := *t
	if t.FromWallet != nil {
		v := *t.FromWallet
		c.FromWallet = &v
	}
	if t.ToWallet != nil {
		v := *t.ToWallet
		c.ToWallet = &v
	}
	return &c
}
