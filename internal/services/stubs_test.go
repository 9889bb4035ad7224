package services

import (
	"context"
	"database/sql"
	"sort"
	"strconv"
	"time"

	"pocketledger/internal/fixedpoint"
	"pocketledger/internal/store"
	"pocketledger/internal/websocket"

	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

// snapshotTxRunner copies the fixture before each unit and restores it when
// the unit fails, so tests can assert what a database rollback would leave
// behind. It also counts units to pin how many transactions an operation
// spans.
type snapshotTxRunner struct {
	m     *memFixture
	calls *int
}

func (r snapshotTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	*r.calls++
	saved := r.m.clone()
	if err := fn(nil); err != nil {
		*r.m = *saved
		return err
	}
	return nil
}

type stubHub struct {
	calls []websocket.BalanceUpdate
}

func (s *stubHub) BroadcastBalance(update websocket.BalanceUpdate) {
	s.calls = append(s.calls, update)
}

// memFixture is an in-memory backing store shared by the service tests.
// Per-table adapter structs below implement the store interfaces over it,
// so one fixture can drive a whole scenario end to end and the balance
// invariant can be asserted after each step.
type memFixture struct {
	nextID int64

	currencies       map[int64]store.Currency
	rates            map[int64][]store.ExchangeRate
	wallets          map[int64]store.Wallet
	accounts         map[int64]store.Account
	tags             map[int64]store.Tag
	edges            []store.TagEdge
	counterparties   map[int64]store.Counterparty
	counterpartyTags map[int64][]int64
	trxs             map[string]store.Trx
	lines            []store.TrxLine
	budgets          map[int64]store.Budget
	budgetTags       map[int64][]int64
	tombstones       map[string][]string
}

func newMemFixture() *memFixture {
	m := &memFixture{
		nextID:           100,
		currencies:       make(map[int64]store.Currency),
		rates:            make(map[int64][]store.ExchangeRate),
		wallets:          make(map[int64]store.Wallet),
		accounts:         make(map[int64]store.Account),
		tags:             make(map[int64]store.Tag),
		counterparties:   make(map[int64]store.Counterparty),
		counterpartyTags: make(map[int64][]int64),
		trxs:             make(map[string]store.Trx),
		budgets:          make(map[int64]store.Budget),
		budgetTags:       make(map[int64][]int64),
		tombstones:       make(map[string][]string),
	}
	m.seedSystemTags()
	return m
}

func (m *memFixture) seedSystemTags() {
	names := map[int64]string{
		store.TagSystem:     "SYSTEM",
		store.TagDefault:    "DEFAULT",
		store.TagIncome:     "INCOME",
		store.TagExpense:    "EXPENSE",
		store.TagTransfer:   "TRANSFER",
		store.TagExchange:   "EXCHANGE",
		store.TagInitial:    "INITIAL",
		store.TagAdjustment: "ADJUSTMENT",
		store.TagFee:        "FEE",
		store.TagDiscount:   "DISCOUNT",
	}
	for id, name := range names {
		m.tags[id] = store.Tag{ID: id, Name: name, IsSystem: true}
		if id != store.TagSystem {
			m.edges = append(m.edges, store.TagEdge{ChildID: id, ParentID: store.TagSystem})
		}
	}
}

func (m *memFixture) clone() *memFixture {
	c := &memFixture{
		nextID:           m.nextID,
		currencies:       make(map[int64]store.Currency, len(m.currencies)),
		rates:            make(map[int64][]store.ExchangeRate, len(m.rates)),
		wallets:          make(map[int64]store.Wallet, len(m.wallets)),
		accounts:         make(map[int64]store.Account, len(m.accounts)),
		tags:             make(map[int64]store.Tag, len(m.tags)),
		edges:            append([]store.TagEdge(nil), m.edges...),
		counterparties:   make(map[int64]store.Counterparty, len(m.counterparties)),
		counterpartyTags: make(map[int64][]int64, len(m.counterpartyTags)),
		trxs:             make(map[string]store.Trx, len(m.trxs)),
		lines:            append([]store.TrxLine(nil), m.lines...),
		budgets:          make(map[int64]store.Budget, len(m.budgets)),
		budgetTags:       make(map[int64][]int64, len(m.budgetTags)),
		tombstones:       make(map[string][]string, len(m.tombstones)),
	}
	for k, v := range m.currencies {
		c.currencies[k] = v
	}
	for k, v := range m.rates {
		c.rates[k] = append([]store.ExchangeRate(nil), v...)
	}
	for k, v := range m.wallets {
		c.wallets[k] = v
	}
	for k, v := range m.accounts {
		c.accounts[k] = v
	}
	for k, v := range m.tags {
		c.tags[k] = v
	}
	for k, v := range m.counterparties {
		c.counterparties[k] = v
	}
	for k, v := range m.counterpartyTags {
		c.counterpartyTags[k] = append([]int64(nil), v...)
	}
	for k, v := range m.trxs {
		c.trxs[k] = v
	}
	for k, v := range m.budgets {
		c.budgets[k] = v
	}
	for k, v := range m.budgetTags {
		c.budgetTags[k] = append([]int64(nil), v...)
	}
	for k, v := range m.tombstones {
		c.tombstones[k] = append([]string(nil), v...)
	}
	return c
}

func (m *memFixture) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memFixture) addCurrency(code string, decimalPlaces int, isDefault bool) int64 {
	id := m.id()
	m.currencies[id] = store.Currency{
		ID: id, Code: code, Name: code, Symbol: code,
		DecimalPlaces: decimalPlaces, IsDefault: isDefault, IsSystem: isDefault,
		IsFiat: true,
	}
	return id
}

func (m *memFixture) addWallet(name string) int64 {
	id := m.id()
	m.wallets[id] = store.Wallet{ID: id, Name: name}
	return id
}

func (m *memFixture) addAccount(walletID, currencyID int64) int64 {
	id := m.id()
	m.accounts[id] = store.Account{ID: id, WalletID: walletID, CurrencyID: currencyID}
	return id
}

func (m *memFixture) addTag(name string, parentIDs ...int64) int64 {
	id := m.id()
	m.tags[id] = store.Tag{ID: id, Name: name}
	for _, parentID := range parentIDs {
		m.edges = append(m.edges, store.TagEdge{ChildID: id, ParentID: parentID})
	}
	return id
}

func (m *memFixture) balance(accountID int64) fixedpoint.FixedPoint {
	return m.accounts[accountID].Balance()
}

// sumLines recomputes the signed line sum for one account, the quantity the
// stored balance must always equal.
func (m *memFixture) sumLines(accountID int64) fixedpoint.FixedPoint {
	total := fixedpoint.Zero
	for _, line := range m.lines {
		if line.AccountID != accountID {
			continue
		}
		total = applyEffect(total, line.Sign, line.Amount())
	}
	return total
}

func (m *memFixture) hasTombstone(tableName, entityID string) bool {
	for _, id := range m.tombstones[tableName] {
		if id == entityID {
			return true
		}
	}
	return false
}

func int64Key(id int64) string {
	return strconv.FormatInt(id, 10)
}

// memCurrencies implements CurrencyStore.
type memCurrencies struct{ m *memFixture }

func (s memCurrencies) Create(ctx context.Context, tx store.Getter, input store.CurrencyInput) (int64, error) {
	id := s.m.id()
	s.m.currencies[id] = store.Currency{
		ID: id, Code: input.Code, Name: input.Name, Symbol: input.Symbol,
		DecimalPlaces: input.DecimalPlaces, IsFiat: input.IsFiat, IsCrypto: input.IsCrypto,
	}
	return id, nil
}

func (s memCurrencies) GetByID(ctx context.Context, q store.Getter, currencyID int64) (store.Currency, error) {
	currency, ok := s.m.currencies[currencyID]
	if !ok {
		return store.Currency{}, sql.ErrNoRows
	}
	return currency, nil
}

func (s memCurrencies) GetByCode(ctx context.Context, q store.Getter, code string) (store.Currency, error) {
	for _, currency := range s.m.currencies {
		if currency.Code == code {
			return currency, nil
		}
	}
	return store.Currency{}, sql.ErrNoRows
}

func (s memCurrencies) GetDefault(ctx context.Context, q store.Getter) (store.Currency, error) {
	for _, currency := range s.m.currencies {
		if currency.IsDefault {
			return currency, nil
		}
	}
	return store.Currency{}, sql.ErrNoRows
}

func (s memCurrencies) Update(ctx context.Context, tx store.Execer, currencyID int64, input store.CurrencyInput) error {
	currency := s.m.currencies[currencyID]
	currency.Code = input.Code
	currency.Name = input.Name
	currency.Symbol = input.Symbol
	currency.DecimalPlaces = input.DecimalPlaces
	s.m.currencies[currencyID] = currency
	return nil
}

func (s memCurrencies) SetDefault(ctx context.Context, tx store.Execer, currencyID int64) error {
	for id, currency := range s.m.currencies {
		currency.IsDefault = id == currencyID
		s.m.currencies[id] = currency
	}
	return nil
}

func (s memCurrencies) Delete(ctx context.Context, tx store.Execer, currencyID int64) error {
	delete(s.m.currencies, currencyID)
	delete(s.m.rates, currencyID)
	return nil
}

func (s memCurrencies) CountAccountRefs(ctx context.Context, q store.Getter, currencyID int64) (int64, error) {
	var count int64
	for _, account := range s.m.accounts {
		if account.CurrencyID == currencyID {
			count++
		}
	}
	return count, nil
}

// memRates implements RateStore.
type memRates struct{ m *memFixture }

func (s memRates) Append(ctx context.Context, tx store.Execer, currencyID int64, rate fixedpoint.FixedPoint, updatedAt time.Time) error {
	s.m.rates[currencyID] = append(s.m.rates[currencyID], store.ExchangeRate{
		ID: s.m.id(), CurrencyID: currencyID,
		RateInt: rate.Int, RateFrac: rate.Frac, UpdatedAt: updatedAt,
	})
	return nil
}

func (s memRates) Latest(ctx context.Context, q store.Getter, currencyID int64) (store.ExchangeRate, error) {
	history := s.m.rates[currencyID]
	if len(history) == 0 {
		return store.ExchangeRate{}, sql.ErrNoRows
	}
	return history[len(history)-1], nil
}

// memWallets implements WalletStore.
type memWallets struct{ m *memFixture }

func (s memWallets) Create(ctx context.Context, tx store.Getter, name, color string) (int64, error) {
	id := s.m.id()
	s.m.wallets[id] = store.Wallet{ID: id, Name: name, Color: color}
	return id, nil
}

func (s memWallets) GetByID(ctx context.Context, q store.Getter, walletID int64) (store.Wallet, error) {
	wallet, ok := s.m.wallets[walletID]
	if !ok {
		return store.Wallet{}, sql.ErrNoRows
	}
	return wallet, nil
}

func (s memWallets) GetByName(ctx context.Context, q store.Getter, name string) (store.Wallet, error) {
	for _, wallet := range s.m.wallets {
		if wallet.Name == name {
			return wallet, nil
		}
	}
	return store.Wallet{}, sql.ErrNoRows
}

func (s memWallets) Update(ctx context.Context, tx store.Execer, walletID int64, name, color string) error {
	wallet := s.m.wallets[walletID]
	wallet.Name = name
	wallet.Color = color
	s.m.wallets[walletID] = wallet
	return nil
}

func (s memWallets) SetDefault(ctx context.Context, tx store.Execer, walletID int64) error {
	for id, wallet := range s.m.wallets {
		wallet.IsDefault = id == walletID
		s.m.wallets[id] = wallet
	}
	return nil
}

func (s memWallets) Delete(ctx context.Context, tx store.Execer, walletID int64) error {
	delete(s.m.wallets, walletID)
	return nil
}

// memAccounts implements AccountStore.
type memAccounts struct{ m *memFixture }

func (s memAccounts) Create(ctx context.Context, tx store.Getter, walletID, currencyID int64) (int64, error) {
	return s.m.addAccount(walletID, currencyID), nil
}

func (s memAccounts) GetByID(ctx context.Context, q store.Getter, accountID int64) (store.Account, error) {
	account, ok := s.m.accounts[accountID]
	if !ok {
		return store.Account{}, sql.ErrNoRows
	}
	return account, nil
}

func (s memAccounts) GetForUpdate(ctx context.Context, tx store.Getter, accountID int64) (store.Account, error) {
	return s.GetByID(ctx, tx, accountID)
}

func (s memAccounts) GetByWalletAndCurrency(ctx context.Context, q store.Getter, walletID, currencyID int64) (store.Account, error) {
	for _, account := range s.m.accounts {
		if account.WalletID == walletID && account.CurrencyID == currencyID {
			return account, nil
		}
	}
	return store.Account{}, sql.ErrNoRows
}

func (s memAccounts) IDsByWallet(ctx context.Context, q store.Selecter, walletID int64) ([]int64, error) {
	ids := make([]int64, 0)
	for id, account := range s.m.accounts {
		if account.WalletID == walletID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s memAccounts) CountByWallet(ctx context.Context, q store.Getter, walletID int64) (int64, error) {
	var count int64
	for _, account := range s.m.accounts {
		if account.WalletID == walletID {
			count++
		}
	}
	return count, nil
}

func (s memAccounts) UpdateBalance(ctx context.Context, tx store.Execer, accountID int64, balance fixedpoint.FixedPoint) error {
	account := s.m.accounts[accountID]
	account.BalanceInt = balance.Int
	account.BalanceFrac = balance.Frac
	s.m.accounts[accountID] = account
	return nil
}

func (s memAccounts) SetWalletDefault(ctx context.Context, tx store.Execer, walletID, accountID int64) error {
	for id, account := range s.m.accounts {
		if account.WalletID == walletID {
			account.IsDefault = id == accountID
			s.m.accounts[id] = account
		}
	}
	return nil
}

func (s memAccounts) Delete(ctx context.Context, tx store.Execer, accountID int64) error {
	delete(s.m.accounts, accountID)
	return nil
}

// memTags implements TagStore.
type memTags struct{ m *memFixture }

func (s memTags) Create(ctx context.Context, tx store.Getter, name string, isCommon bool, sortOrder int) (int64, error) {
	id := s.m.id()
	s.m.tags[id] = store.Tag{ID: id, Name: name, IsCommon: isCommon, SortOrder: sortOrder}
	return id, nil
}

func (s memTags) GetByID(ctx context.Context, q store.Getter, tagID int64) (store.Tag, error) {
	tag, ok := s.m.tags[tagID]
	if !ok {
		return store.Tag{}, sql.ErrNoRows
	}
	return tag, nil
}

func (s memTags) GetByName(ctx context.Context, q store.Getter, name string) (store.Tag, error) {
	for _, tag := range s.m.tags {
		if tag.Name == name {
			return tag, nil
		}
	}
	return store.Tag{}, sql.ErrNoRows
}

func (s memTags) List(ctx context.Context) ([]store.Tag, error) {
	tags := make([]store.Tag, 0, len(s.m.tags))
	for _, tag := range s.m.tags {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].ID < tags[j].ID })
	return tags, nil
}

func (s memTags) Update(ctx context.Context, tx store.Execer, tagID int64, name string, isCommon bool, sortOrder int) error {
	tag := s.m.tags[tagID]
	tag.Name = name
	tag.IsCommon = isCommon
	tag.SortOrder = sortOrder
	s.m.tags[tagID] = tag
	return nil
}

func (s memTags) Delete(ctx context.Context, tx store.Execer, tagID int64) error {
	delete(s.m.tags, tagID)
	kept := s.m.edges[:0]
	for _, edge := range s.m.edges {
		if edge.ChildID != tagID && edge.ParentID != tagID {
			kept = append(kept, edge)
		}
	}
	s.m.edges = kept
	return nil
}

func (s memTags) ListEdges(ctx context.Context, q store.Selecter) ([]store.TagEdge, error) {
	return append([]store.TagEdge{}, s.m.edges...), nil
}

func (s memTags) InsertEdge(ctx context.Context, tx store.Execer, childID, parentID int64) error {
	for _, edge := range s.m.edges {
		if edge.ChildID == childID && edge.ParentID == parentID {
			return nil
		}
	}
	s.m.edges = append(s.m.edges, store.TagEdge{ChildID: childID, ParentID: parentID})
	return nil
}

func (s memTags) DeleteEdgesForChild(ctx context.Context, tx store.Execer, childID int64) error {
	kept := s.m.edges[:0]
	for _, edge := range s.m.edges {
		if edge.ChildID != childID {
			kept = append(kept, edge)
		}
	}
	s.m.edges = kept
	return nil
}

func (s memTags) CountLineRefs(ctx context.Context, q store.Getter, tagID int64) (int64, error) {
	var count int64
	for _, line := range s.m.lines {
		if line.TagID == tagID {
			count++
		}
	}
	return count, nil
}

func (s memTags) CountBudgetRefs(ctx context.Context, q store.Getter, tagID int64) (int64, error) {
	var count int64
	for _, budget := range s.m.budgets {
		if budget.TagID == tagID {
			count++
		}
	}
	for _, tagIDs := range s.m.budgetTags {
		for _, id := range tagIDs {
			if id == tagID {
				count++
			}
		}
	}
	return count, nil
}

// memCounterparties implements CounterpartyStore.
type memCounterparties struct{ m *memFixture }

func (s memCounterparties) Create(ctx context.Context, tx store.Getter, name, note string) (int64, error) {
	id := s.m.id()
	s.m.counterparties[id] = store.Counterparty{ID: id, Name: name, Note: note}
	return id, nil
}

func (s memCounterparties) GetByID(ctx context.Context, q store.Getter, counterpartyID int64) (store.Counterparty, error) {
	counterparty, ok := s.m.counterparties[counterpartyID]
	if !ok {
		return store.Counterparty{}, sql.ErrNoRows
	}
	return counterparty, nil
}

func (s memCounterparties) GetByName(ctx context.Context, q store.Getter, name string) (store.Counterparty, error) {
	for _, counterparty := range s.m.counterparties {
		if counterparty.Name == name {
			return counterparty, nil
		}
	}
	return store.Counterparty{}, sql.ErrNoRows
}

func (s memCounterparties) Update(ctx context.Context, tx store.Execer, counterpartyID int64, name, note string) error {
	counterparty := s.m.counterparties[counterpartyID]
	counterparty.Name = name
	counterparty.Note = note
	s.m.counterparties[counterpartyID] = counterparty
	return nil
}

func (s memCounterparties) Delete(ctx context.Context, tx store.Execer, counterpartyID int64) error {
	delete(s.m.counterparties, counterpartyID)
	return nil
}

func (s memCounterparties) SetTags(ctx context.Context, tx store.Execer, counterpartyID int64, tagIDs []int64) error {
	s.m.counterpartyTags[counterpartyID] = append([]int64{}, tagIDs...)
	return nil
}

func (s memCounterparties) CountTrxRefs(ctx context.Context, q store.Getter, counterpartyID int64) (int64, error) {
	var count int64
	for _, trx := range s.m.trxs {
		if trx.CounterpartyID != nil && *trx.CounterpartyID == counterpartyID {
			count++
		}
	}
	return count, nil
}

// memTransactions implements TransactionStore.
type memTransactions struct{ m *memFixture }

func (s memTransactions) CreateTrx(ctx context.Context, tx store.Execer, input store.TrxInput) error {
	s.m.trxs[input.ID] = store.Trx{
		ID: input.ID, Timestamp: input.Timestamp,
		CounterpartyID: input.CounterpartyID, Note: input.Note,
	}
	return nil
}

func (s memTransactions) UpdateTrxHeader(ctx context.Context, tx store.Execer, trxID string, timestamp int64, counterpartyID *int64, note string) error {
	trx := s.m.trxs[trxID]
	trx.Timestamp = timestamp
	trx.CounterpartyID = counterpartyID
	trx.Note = note
	s.m.trxs[trxID] = trx
	return nil
}

func (s memTransactions) DeleteTrx(ctx context.Context, tx store.Execer, trxID string) error {
	delete(s.m.trxs, trxID)
	return nil
}

func (s memTransactions) GetTrx(ctx context.Context, q store.Getter, trxID string) (store.Trx, error) {
	trx, ok := s.m.trxs[trxID]
	if !ok {
		return store.Trx{}, sql.ErrNoRows
	}
	return trx, nil
}

func (s memTransactions) TrxExists(ctx context.Context, q store.Getter, trxID string) (bool, error) {
	_, ok := s.m.trxs[trxID]
	return ok, nil
}

func (s memTransactions) InsertLine(ctx context.Context, tx store.Execer, input store.TrxLineInput) error {
	s.m.lines = append(s.m.lines, store.TrxLine{
		ID: input.ID, TrxID: input.TrxID, AccountID: input.AccountID,
		TagID: input.TagID, Sign: input.Sign,
		AmountInt: input.Amount.Int, AmountFrac: input.Amount.Frac,
		RateInt: input.Rate.Int, RateFrac: input.Rate.Frac,
		PctValue: input.PctValue,
	})
	return nil
}

func (s memTransactions) DeleteLine(ctx context.Context, tx store.Execer, lineID string) error {
	kept := s.m.lines[:0]
	for _, line := range s.m.lines {
		if line.ID != lineID {
			kept = append(kept, line)
		}
	}
	s.m.lines = kept
	return nil
}

func (s memTransactions) ListLinesByTrx(ctx context.Context, q store.Selecter, trxID string) ([]store.TrxLine, error) {
	result := make([]store.TrxLine, 0)
	for _, line := range s.m.lines {
		if line.TrxID == trxID {
			result = append(result, line)
		}
	}
	return result, nil
}

func (s memTransactions) ListLinesByAccount(ctx context.Context, q store.Selecter, accountID int64) ([]store.TrxLine, error) {
	result := make([]store.TrxLine, 0)
	for _, line := range s.m.lines {
		if line.AccountID == accountID {
			result = append(result, line)
		}
	}
	return result, nil
}

func (s memTransactions) CountLinesByAccountExcludingTag(ctx context.Context, q store.Getter, accountID, tagID int64) (int64, error) {
	var count int64
	for _, line := range s.m.lines {
		if line.AccountID == accountID && line.TagID != tagID {
			count++
		}
	}
	return count, nil
}

func (s memTransactions) HasLineWithTag(ctx context.Context, q store.Getter, accountID, tagID int64) (bool, error) {
	for _, line := range s.m.lines {
		if line.AccountID == accountID && line.TagID == tagID {
			return true, nil
		}
	}
	return false, nil
}

func (s memTransactions) FirstTimestampForAccount(ctx context.Context, q store.Getter, accountID int64) (int64, error) {
	var first int64
	for _, line := range s.m.lines {
		if line.AccountID != accountID {
			continue
		}
		ts := s.m.trxs[line.TrxID].Timestamp
		if first == 0 || ts < first {
			first = ts
		}
	}
	return first, nil
}

func (s memTransactions) ListLinesInPeriod(ctx context.Context, from, to int64) ([]store.ReportLine, error) {
	result := make([]store.ReportLine, 0)
	for _, line := range s.m.lines {
		trx := s.m.trxs[line.TrxID]
		if trx.Timestamp < from || trx.Timestamp >= to {
			continue
		}
		account := s.m.accounts[line.AccountID]
		currency := s.m.currencies[account.CurrencyID]
		reportLine := store.ReportLine{
			LineID: line.ID, TrxID: line.TrxID, Timestamp: trx.Timestamp,
			AccountID: line.AccountID, CurrencyID: currency.ID,
			DecimalPlaces: currency.DecimalPlaces,
			TagID:         line.TagID, TagName: s.m.tags[line.TagID].Name,
			CounterpartyID: trx.CounterpartyID,
			Sign:           line.Sign,
			AmountInt:      line.AmountInt, AmountFrac: line.AmountFrac,
			RateInt: line.RateInt, RateFrac: line.RateFrac,
		}
		if trx.CounterpartyID != nil {
			name := s.m.counterparties[*trx.CounterpartyID].Name
			reportLine.Counterparty = &name
		}
		result = append(result, reportLine)
	}
	return result, nil
}

func (s memTransactions) ListForExport(ctx context.Context, filter store.ExportFilter) ([]store.ExportRow, error) {
	result := make([]store.ExportRow, 0)
	for _, line := range s.m.lines {
		trx := s.m.trxs[line.TrxID]
		if filter.From != 0 && trx.Timestamp < filter.From {
			continue
		}
		if filter.To != 0 && trx.Timestamp >= filter.To {
			continue
		}
		if filter.AccountID != 0 && line.AccountID != filter.AccountID {
			continue
		}
		if filter.TagID != 0 && line.TagID != filter.TagID {
			continue
		}
		account := s.m.accounts[line.AccountID]
		if filter.WalletID != 0 && account.WalletID != filter.WalletID {
			continue
		}
		currency := s.m.currencies[account.CurrencyID]
		row := store.ExportRow{
			TrxID: line.TrxID, LineID: line.ID, Timestamp: trx.Timestamp,
			WalletName:   s.m.wallets[account.WalletID].Name,
			CurrencyCode: currency.Code, DecimalPlaces: currency.DecimalPlaces,
			TagName: s.m.tags[line.TagID].Name, Sign: line.Sign,
			AmountInt: line.AmountInt, AmountFrac: line.AmountFrac,
			RateInt: line.RateInt, RateFrac: line.RateFrac,
			Note: trx.Note,
		}
		if trx.CounterpartyID != nil {
			name := s.m.counterparties[*trx.CounterpartyID].Name
			row.Counterparty = &name
		}
		result = append(result, row)
	}
	return result, nil
}

// memBudgets implements BudgetStore.
type memBudgets struct{ m *memFixture }

func (s memBudgets) Create(ctx context.Context, tx store.Getter, tagID int64, amount fixedpoint.FixedPoint, startAt, endAt int64) (int64, error) {
	id := s.m.id()
	s.m.budgets[id] = store.Budget{
		ID: id, TagID: tagID,
		AmountInt: amount.Int, AmountFrac: amount.Frac,
		StartAt: startAt, EndAt: endAt,
	}
	return id, nil
}

func (s memBudgets) GetByID(ctx context.Context, q store.Getter, budgetID int64) (store.Budget, error) {
	budget, ok := s.m.budgets[budgetID]
	if !ok {
		return store.Budget{}, sql.ErrNoRows
	}
	return budget, nil
}

func (s memBudgets) List(ctx context.Context) ([]store.Budget, error) {
	budgets := make([]store.Budget, 0, len(s.m.budgets))
	for _, budget := range s.m.budgets {
		budgets = append(budgets, budget)
	}
	sort.Slice(budgets, func(i, j int) bool { return budgets[i].ID < budgets[j].ID })
	return budgets, nil
}

func (s memBudgets) Update(ctx context.Context, tx store.Execer, budgetID, tagID int64, amount fixedpoint.FixedPoint, startAt, endAt int64) error {
	budget := s.m.budgets[budgetID]
	budget.TagID = tagID
	budget.AmountInt = amount.Int
	budget.AmountFrac = amount.Frac
	budget.StartAt = startAt
	budget.EndAt = endAt
	s.m.budgets[budgetID] = budget
	return nil
}

func (s memBudgets) Delete(ctx context.Context, tx store.Execer, budgetID int64) error {
	delete(s.m.budgets, budgetID)
	delete(s.m.budgetTags, budgetID)
	return nil
}

func (s memBudgets) SetIncludedTags(ctx context.Context, tx store.Execer, budgetID int64, tagIDs []int64) error {
	s.m.budgetTags[budgetID] = append([]int64{}, tagIDs...)
	return nil
}

func (s memBudgets) ListIncludedTags(ctx context.Context, q store.Selecter, budgetID int64) ([]int64, error) {
	return append([]int64{}, s.m.budgetTags[budgetID]...), nil
}

// memSync implements SyncStore.
type memSync struct{ m *memFixture }

func (s memSync) RecordDeletion(ctx context.Context, tx store.Execer, tableName, entityID string) error {
	s.m.tombstones[tableName] = append(s.m.tombstones[tableName], entityID)
	return nil
}
