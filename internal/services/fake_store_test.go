package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"eventra/internal/domain"
)

// memStore is an in-memory domain.Store. WithinTx serializes transactions on
// one mutex, which stands in for row locks, and restores a snapshot when fn fails.
type memStore struct {
	mu           sync.Mutex
	seq          int
	events       map[string]domain.Event
	participants map[string]domain.EventParticipant
	payments     map[string]domain.Payment
	users        map[string]domain.User
	clients      map[string]domain.Client
	hosts        map[string]domain.Host
	admins       map[string]domain.Admin
	reviews      map[string]domain.Review
	applications map[string]domain.HostApplication
	fail         map[string]error
	commits      int
	rollbacks    int
}

func newMemStore() *memStore {
	return &memStore{
		events:       map[string]domain.Event{},
		participants: map[string]domain.EventParticipant{},
		payments:     map[string]domain.Payment{},
		users:        map[string]domain.User{},
		clients:      map[string]domain.Client{},
		hosts:        map[string]domain.Host{},
		admins:       map[string]domain.Admin{},
		reviews:      map[string]domain.Review{},
		applications: map[string]domain.HostApplication{},
		fail:         map[string]error{},
	}
}

type memSnapshot struct {
	seq          int
	events       map[string]domain.Event
	participants map[string]domain.EventParticipant
	payments     map[string]domain.Payment
	users        map[string]domain.User
	clients      map[string]domain.Client
	hosts        map[string]domain.Host
	admins       map[string]domain.Admin
	reviews      map[string]domain.Review
	applications map[string]domain.HostApplication
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() memSnapshot {
	return memSnapshot{
		seq:          s.seq,
		events:       copyMap(s.events),
		participants: copyMap(s.participants),
		payments:     copyMap(s.payments),
		users:        copyMap(s.users),
		clients:      copyMap(s.clients),
		hosts:        copyMap(s.hosts),
		admins:       copyMap(s.admins),
		reviews:      copyMap(s.reviews),
		applications: copyMap(s.applications),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.seq = snap.seq
	s.events = snap.events
	s.participants = snap.participants
	s.payments = snap.payments
	s.users = snap.users
	s.clients = snap.clients
	s.hosts = snap.hosts
	s.admins = snap.admins
	s.reviews = snap.reviews
	s.applications = snap.applications
}

func (s *memStore) Repos() domain.Repositories {
	return s.view(true)
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	if err := fn(ctx, s.view(false)); err != nil {
		s.restore(snap)
		s.rollbacks++
		return err
	}
	s.commits++
	return nil
}

func (s *memStore) view(locked bool) domain.Repositories {
	v := memView{s: s, locked: locked}
	return domain.Repositories{
		Events:       memEvents{v},
		Participants: memParticipants{v},
		Payments:     memPayments{v},
		Users:        memUsers{v},
		Clients:      memClients{v},
		Hosts:        memHosts{v},
		Admins:       memAdmins{v},
		Reviews:      memReviews{v},
		Applications: memApplications{v},
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%04d", prefix, s.seq)
}

// failOn makes the named repository operation return err.
func (s *memStore) failOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[op] = err
}

// Test accessors read committed state.

func (s *memStore) event(id string) domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[id]
}

func (s *memStore) payment(transactionID string) domain.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.TransactionID == transactionID {
			return p
		}
	}
	return domain.Payment{}
}

func (s *memStore) participant(id string) domain.EventParticipant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.participants[id]
}

func (s *memStore) host(id string) domain.Host {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hosts[id]
}

func (s *memStore) admin(id string) domain.Admin {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.admins[id]
}

func (s *memStore) user(id string) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id]
}

func (s *memStore) client(id string) domain.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clients[id]
}

func (s *memStore) application(id string) domain.HostApplication {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applications[id]
}

func (s *memStore) counts() (participants, payments int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.participants), len(s.payments)
}

func (s *memStore) activeParticipants(eventID, clientID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.participants {
		if p.EventID == eventID && p.ClientID == clientID && p.Status.IsActive() {
			n++
		}
	}
	return n
}

type memView struct {
	s      *memStore
	locked bool
}

func (v memView) guard() func() {
	if !v.locked {
		return func() {}
	}
	v.s.mu.Lock()
	return v.s.mu.Unlock
}

func (v memView) failure(op string) error {
	return v.s.fail[op]
}

type memEvents struct{ memView }

func (r memEvents) Create(ctx context.Context, e *domain.Event) error {
	defer r.guard()()
	e.ID = r.s.nextID("ev")
	r.s.events[e.ID] = *e
	return nil
}

func (r memEvents) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	defer r.guard()()
	e, ok := r.s.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

func (r memEvents) GetByIDForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	return r.GetByID(ctx, id)
}

func (r memEvents) UpdateInventory(ctx context.Context, e *domain.Event) error {
	defer r.guard()()
	if err := r.failure("Events.UpdateInventory"); err != nil {
		return err
	}
	cur, ok := r.s.events[e.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.Capacity, cur.Status, cur.UpdatedAt = e.Capacity, e.Status, e.UpdatedAt
	r.s.events[e.ID] = cur
	return nil
}

func (r memEvents) UpdateStatus(ctx context.Context, id string, status domain.EventStatus) error {
	defer r.guard()()
	cur, ok := r.s.events[id]
	if !ok {
		return domain.ErrNotFound
	}
	cur.Status = status
	r.s.events[id] = cur
	return nil
}

type memParticipants struct{ memView }

func (r memParticipants) Create(ctx context.Context, p *domain.EventParticipant) error {
	defer r.guard()()
	for _, cur := range r.s.participants {
		if cur.EventID == p.EventID && cur.ClientID == p.ClientID && cur.Status.IsActive() {
			return domain.ErrAlreadyJoined
		}
	}
	p.ID = r.s.nextID("part")
	r.s.participants[p.ID] = *p
	return nil
}

func (r memParticipants) GetActiveByEventAndClient(ctx context.Context, eventID, clientID string) (*domain.EventParticipant, error) {
	defer r.guard()()
	for _, p := range r.s.participants {
		if p.EventID == eventID && p.ClientID == clientID && p.Status.IsActive() {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memParticipants) GetActiveByEventAndClientForUpdate(ctx context.Context, eventID, clientID string) (*domain.EventParticipant, error) {
	return r.GetActiveByEventAndClient(ctx, eventID, clientID)
}

func (r memParticipants) GetByIDForUpdate(ctx context.Context, id string) (*domain.EventParticipant, error) {
	defer r.guard()()
	p, ok := r.s.participants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r memParticipants) GetByTransactionID(ctx context.Context, transactionID string) (*domain.EventParticipant, error) {
	defer r.guard()()
	for _, p := range r.s.participants {
		if p.TransactionID == transactionID {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memParticipants) UpdateStatus(ctx context.Context, id string, status domain.ParticipantStatus) error {
	defer r.guard()()
	if err := r.failure("Participants.UpdateStatus"); err != nil {
		return err
	}
	p, ok := r.s.participants[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = status
	r.s.participants[id] = p
	return nil
}

func (r memParticipants) ListActiveByEventID(ctx context.Context, eventID string, params domain.PaginationParams) ([]*domain.EventParticipant, int, error) {
	defer r.guard()()
	var all []*domain.EventParticipant
	for _, p := range r.s.participants {
		if p.EventID == eventID && p.Status.IsActive() {
			all = append(all, &p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.PageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

type memPayments struct{ memView }

func (r memPayments) Create(ctx context.Context, p *domain.Payment) error {
	defer r.guard()()
	for _, cur := range r.s.payments {
		if cur.TransactionID == p.TransactionID {
			return fmt.Errorf("duplicate transaction id %s", p.TransactionID)
		}
	}
	p.ID = r.s.nextID("pay")
	r.s.payments[p.ID] = *p
	return nil
}

func (r memPayments) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	defer r.guard()()
	for _, p := range r.s.payments {
		if p.TransactionID == transactionID {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memPayments) GetByTransactionIDForUpdate(ctx context.Context, transactionID string) (*domain.Payment, error) {
	return r.GetByTransactionID(ctx, transactionID)
}

func (r memPayments) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	defer r.guard()()
	p, ok := r.s.payments[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = status
	r.s.payments[id] = p
	return nil
}

func (r memPayments) ListExpiredPending(ctx context.Context, before time.Time, limit int) ([]string, error) {
	defer r.guard()()
	var ids []string
	for _, p := range r.s.payments {
		if p.Status == domain.PaymentPending && p.CreatedAt.Before(before) {
			ids = append(ids, p.TransactionID)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

type memUsers struct{ memView }

func (r memUsers) Create(ctx context.Context, u *domain.User) error {
	defer r.guard()()
	for _, cur := range r.s.users {
		if cur.Email == u.Email {
			return domain.ErrEmailTaken
		}
	}
	u.ID = r.s.nextID("user")
	r.s.users[u.ID] = *u
	return nil
}

func (r memUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	defer r.guard()()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r memUsers) GetByIDForUpdate(ctx context.Context, id string) (*domain.User, error) {
	return r.GetByID(ctx, id)
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	defer r.guard()()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memUsers) ExistsWithRole(ctx context.Context, role domain.Role) (bool, error) {
	defer r.guard()()
	for _, u := range r.s.users {
		if u.Role == role {
			return true, nil
		}
	}
	return false, nil
}

func (r memUsers) UpdateStatus(ctx context.Context, id string, status domain.UserStatus) error {
	defer r.guard()()
	u, ok := r.s.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Status = status
	r.s.users[id] = u
	// Client profiles carry the account status the way the SQL join does.
	for cid, c := range r.s.clients {
		if c.UserID == id {
			c.Status = status
			r.s.clients[cid] = c
		}
	}
	return nil
}

func (r memUsers) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	defer r.guard()()
	u, ok := r.s.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Role = role
	r.s.users[id] = u
	return nil
}

type memClients struct{ memView }

func (r memClients) Create(ctx context.Context, c *domain.Client) error {
	defer r.guard()()
	if err := r.failure("Clients.Create"); err != nil {
		return err
	}
	for _, cur := range r.s.clients {
		if cur.Email == c.Email {
			return domain.ErrEmailTaken
		}
	}
	c.ID = r.s.nextID("client")
	if u, ok := r.s.users[c.UserID]; ok {
		c.Status = u.Status
	}
	r.s.clients[c.ID] = *c
	return nil
}

func (r memClients) MarkDeleted(ctx context.Context, id string) error {
	defer r.guard()()
	c, ok := r.s.clients[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.IsDeleted = true
	r.s.clients[id] = c
	return nil
}

func (r memClients) GetByEmail(ctx context.Context, email string) (*domain.Client, error) {
	defer r.guard()()
	for _, c := range r.s.clients {
		if c.Email == email {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memClients) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	defer r.guard()()
	c, ok := r.s.clients[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

type memHosts struct{ memView }

func (r memHosts) Create(ctx context.Context, h *domain.Host) error {
	defer r.guard()()
	h.ID = r.s.nextID("host")
	r.s.hosts[h.ID] = *h
	return nil
}

func (r memHosts) GetByEmail(ctx context.Context, email string) (*domain.Host, error) {
	defer r.guard()()
	for _, h := range r.s.hosts {
		if h.Email == email {
			return &h, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memHosts) GetByIDForUpdate(ctx context.Context, id string) (*domain.Host, error) {
	defer r.guard()()
	h, ok := r.s.hosts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &h, nil
}

func (r memHosts) AddIncome(ctx context.Context, id string, amount decimal.Decimal) error {
	defer r.guard()()
	h, ok := r.s.hosts[id]
	if !ok {
		return domain.ErrNotFound
	}
	h.Income = h.Income.Add(amount)
	r.s.hosts[id] = h
	return nil
}

func (r memHosts) UpdateRating(ctx context.Context, id string, rating decimal.Decimal, count int) error {
	defer r.guard()()
	h, ok := r.s.hosts[id]
	if !ok {
		return domain.ErrNotFound
	}
	h.Rating, h.RatingCount = rating, count
	r.s.hosts[id] = h
	return nil
}

type memAdmins struct{ memView }

func (r memAdmins) Create(ctx context.Context, a *domain.Admin) error {
	defer r.guard()()
	a.ID = r.s.nextID("admin")
	r.s.admins[a.ID] = *a
	return nil
}

func (r memAdmins) First(ctx context.Context) (*domain.Admin, error) {
	defer r.guard()()
	if err := r.failure("Admins.First"); err != nil {
		return nil, err
	}
	var first *domain.Admin
	for _, a := range r.s.admins {
		if first == nil || a.ID < first.ID {
			first = &a
		}
	}
	if first == nil {
		return nil, domain.ErrNotFound
	}
	return first, nil
}

func (r memAdmins) AddIncome(ctx context.Context, id string, amount decimal.Decimal) error {
	defer r.guard()()
	a, ok := r.s.admins[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.Income = a.Income.Add(amount)
	r.s.admins[id] = a
	return nil
}

type memReviews struct{ memView }

func (r memReviews) Create(ctx context.Context, rv *domain.Review) error {
	defer r.guard()()
	for _, cur := range r.s.reviews {
		if cur.EventID == rv.EventID && cur.ClientID == rv.ClientID {
			return domain.ErrAlreadyReviewed
		}
	}
	rv.ID = r.s.nextID("review")
	r.s.reviews[rv.ID] = *rv
	return nil
}

func (r memReviews) ExistsForEventAndClient(ctx context.Context, eventID, clientID string) (bool, error) {
	defer r.guard()()
	for _, cur := range r.s.reviews {
		if cur.EventID == eventID && cur.ClientID == clientID {
			return true, nil
		}
	}
	return false, nil
}

type memApplications struct{ memView }

func (r memApplications) Create(ctx context.Context, a *domain.HostApplication) error {
	defer r.guard()()
	for _, cur := range r.s.applications {
		if cur.UserID == a.UserID && cur.Status == domain.ApplicationPending {
			return domain.ErrAlreadyApplied
		}
	}
	a.ID = r.s.nextID("app")
	r.s.applications[a.ID] = *a
	return nil
}

func (r memApplications) GetByIDForUpdate(ctx context.Context, id string) (*domain.HostApplication, error) {
	defer r.guard()()
	a, ok := r.s.applications[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (r memApplications) UpdateStatus(ctx context.Context, id string, status domain.HostApplicationStatus) error {
	defer r.guard()()
	a, ok := r.s.applications[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.Status = status
	r.s.applications[id] = a
	return nil
}

// fakeGateway is an in-memory PaymentGateway.
type fakeGateway struct {
	mu          sync.Mutex
	initErr     error
	validateErr error
	validation  *domain.GatewayValidation
	inits       int
	validations int
}

func (g *fakeGateway) InitSession(ctx context.Context, req domain.GatewaySessionRequest) (*domain.GatewaySession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inits++
	if g.initErr != nil {
		return nil, g.initErr
	}
	return &domain.GatewaySession{RedirectURL: "https://gateway.test/pay/" + req.TransactionID}, nil
}

func (g *fakeGateway) Validate(ctx context.Context, valID string) (*domain.GatewayValidation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.validations++
	if g.validateErr != nil {
		return nil, g.validateErr
	}
	v := *g.validation
	return &v, nil
}

type seqIDs struct{ n atomic.Int64 }

func (g *seqIDs) Next() string {
	return fmt.Sprintf("tran_test_%d", g.n.Add(1))
}

// memCache is an in-memory ReplayCache.
type memCache struct {
	mu    sync.Mutex
	items map[string]domain.ReconcileResult
	gets  int
}

func newMemCache() *memCache {
	return &memCache{items: map[string]domain.ReconcileResult{}}
}

func (c *memCache) Get(ctx context.Context, transactionID string) (*domain.ReconcileResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	res, ok := c.items[transactionID]
	if !ok {
		return nil, nil
	}
	return &res, nil
}

func (c *memCache) Put(ctx context.Context, res *domain.ReconcileResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[res.TransactionID] = *res
	return nil
}

// recordingNotifier counts post-commit notifications.
type recordingNotifier struct {
	mu         sync.Mutex
	joined     int
	left       int
	reconciled []*domain.ReconcileResult
	completed  int
}

func (n *recordingNotifier) Joined(context.Context, *domain.JoinResult) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.joined++
}

func (n *recordingNotifier) Left(context.Context, *domain.LeaveResult) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.left++
}

func (n *recordingNotifier) Reconciled(_ context.Context, res *domain.ReconcileResult) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reconciled = append(n.reconciled, res)
}

func (n *recordingNotifier) Completed(context.Context, *domain.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed++
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

const (
	testHostID    = "host-1"
	testHostEmail = "host@example.com"
	testAdminID   = "admin-1"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// fixture wires the booking core over a memStore seeded with one host and one admin.
type fixture struct {
	store      *memStore
	gateway    *fakeGateway
	cache      *memCache
	notifier   *recordingNotifier
	booking    *bookingService
	reconciler *paymentReconciler
}

func newFixture() *fixture {
	store := newMemStore()
	store.hosts[testHostID] = domain.Host{ID: testHostID, Email: testHostEmail, Name: "Host"}
	store.admins[testAdminID] = domain.Admin{ID: testAdminID, Email: "admin@example.com"}

	f := &fixture{
		store:    store,
		gateway:  &fakeGateway{validation: &domain.GatewayValidation{Valid: true, Status: "VALID"}},
		cache:    newMemCache(),
		notifier: &recordingNotifier{},
	}
	ids := &seqIDs{}
	f.booking = NewBookingService(BookingDeps{
		Store:          store,
		Gateway:        f.gateway,
		IDs:            ids,
		Notifier:       f.notifier,
		Logger:         testLogger(),
		Timeout:        5 * time.Second,
		GatewayTimeout: time.Second,
	}).(*bookingService)
	f.booking.now = func() time.Time { return testNow }

	f.reconciler = NewPaymentReconciler(ReconcilerDeps{
		Store:          store,
		Gateway:        f.gateway,
		Cache:          f.cache,
		Notifier:       f.notifier,
		Logger:         testLogger(),
		Timeout:        5 * time.Second,
		GatewayTimeout: time.Second,
	}).(*paymentReconciler)
	f.reconciler.now = func() time.Time { return testNow }
	return f
}

func (f *fixture) addEvent(capacity int, status domain.EventStatus, date time.Time, fee string) string {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	id := f.store.nextID("ev")
	f.store.events[id] = domain.Event{
		ID:         id,
		HostID:     testHostID,
		Title:      "Event " + id,
		Capacity:   capacity,
		Status:     status,
		Date:       date,
		JoiningFee: decimal.RequireFromString(fee),
	}
	return id
}

func (f *fixture) addClient(email string, status domain.UserStatus, deleted bool) domain.Actor {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	id := f.store.nextID("client")
	f.store.clients[id] = domain.Client{
		ID:        id,
		UserID:    "u-" + id,
		Name:      "Client " + id,
		Email:     email,
		Status:    status,
		IsDeleted: deleted,
	}
	return domain.Actor{UserID: "u-" + id, Email: email, Role: domain.RoleClient}
}
