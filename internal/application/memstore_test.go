package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/picktoride/service-rental/internal/domain/allocation"
	"github.com/picktoride/service-rental/internal/domain/audit"
	"github.com/picktoride/service-rental/internal/domain/booking"
	"github.com/picktoride/service-rental/internal/domain/fleet"
	"github.com/picktoride/service-rental/internal/domain/notification"
	"github.com/picktoride/service-rental/internal/domain/payment"
	"github.com/picktoride/service-rental/internal/platform/async"
	"github.com/picktoride/service-rental/internal/platform/auth"
	"github.com/picktoride/service-rental/internal/platform/domain"
)

// memDB is an in-memory store. Rows are stored and returned as copies so that a rolled back
// transaction can restore the previous maps.
type memDB struct {
	mu            sync.Mutex
	bookings      map[uuid.UUID]*booking.Booking
	cars          map[uuid.UUID]*fleet.Car
	staff         map[uuid.UUID]*fleet.Staff
	schedules     map[uuid.UUID]*fleet.DriverSchedule
	maintenance   map[uuid.UUID]*fleet.Maintenance
	extensions    map[uuid.UUID]*allocation.ExtensionRequest
	handovers     []*allocation.HandOverRecord
	returns       []*allocation.ReturnRecord
	payments      map[uuid.UUID]*payment.Payment
	notifications map[uuid.UUID]*notification.Notification
}

func newMemDB() *memDB {
	return &memDB{
		bookings:      map[uuid.UUID]*booking.Booking{},
		cars:          map[uuid.UUID]*fleet.Car{},
		staff:         map[uuid.UUID]*fleet.Staff{},
		schedules:     map[uuid.UUID]*fleet.DriverSchedule{},
		maintenance:   map[uuid.UUID]*fleet.Maintenance{},
		extensions:    map[uuid.UUID]*allocation.ExtensionRequest{},
		payments:      map[uuid.UUID]*payment.Payment{},
		notifications: map[uuid.UUID]*notification.Notification{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (db *memDB) snapshot() *memDB {
	db.mu.Lock()
	defer db.mu.Unlock()
	return &memDB{
		bookings:      cloneMap(db.bookings),
		cars:          cloneMap(db.cars),
		staff:         cloneMap(db.staff),
		schedules:     cloneMap(db.schedules),
		maintenance:   cloneMap(db.maintenance),
		extensions:    cloneMap(db.extensions),
		handovers:     append([]*allocation.HandOverRecord(nil), db.handovers...),
		returns:       append([]*allocation.ReturnRecord(nil), db.returns...),
		payments:      cloneMap(db.payments),
		notifications: cloneMap(db.notifications),
	}
}

func (db *memDB) restore(s *memDB) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.bookings = s.bookings
	db.cars = s.cars
	db.staff = s.staff
	db.schedules = s.schedules
	db.maintenance = s.maintenance
	db.extensions = s.extensions
	db.handovers = s.handovers
	db.returns = s.returns
	db.payments = s.payments
	db.notifications = s.notifications
}

func (db *memDB) stores() Stores {
	return Stores{
		Bookings:      &memBookings{db},
		Cars:          &memCars{db},
		Staff:         &memStaff{db},
		Schedules:     &memSchedules{db},
		Maintenance:   &memMaintenance{db},
		Extensions:    &memExtensions{db},
		HandOvers:     &memHandOvers{db},
		Returns:       &memReturns{db},
		Payments:      &memPayments{db},
		Notifications: &memNotifications{db},
	}
}

// memTx rolls the store back when fn fails.
type memTx struct{ db *memDB }

func (t memTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := t.db.snapshot()
	if err := fn(ctx); err != nil {
		t.db.restore(snap)
		return err
	}
	return nil
}

func copyOf[T any](v *T) *T {
	c := *v
	return &c
}

func checkVersion(stored, next int64, entity string) error {
	if stored != next-1 {
		return domain.NewConflictError(entity + " was modified by another transaction")
	}
	return nil
}

func paginate[T any](items []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(items) {
		return nil
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// --- bookings ---

type memBookings struct{ db *memDB }

func (r *memBookings) FindByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	bk, ok := r.db.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return copyOf(bk), nil
}

func (r *memBookings) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return r.FindByID(ctx, id)
}

func (r *memBookings) FindByCode(_ context.Context, code string) (*booking.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, bk := range r.db.bookings {
		if bk.BookingCode() == code {
			return copyOf(bk), nil
		}
	}
	return nil, domain.NewNotFoundError("Booking", code)
}

func (r *memBookings) ExistsByCode(ctx context.Context, code string) (bool, error) {
	_, err := r.FindByCode(ctx, code)
	if domain.IsCode(err, domain.CodeNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *memBookings) filter(keep func(*booking.Booking) bool) []*booking.Booking {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*booking.Booking
	for _, bk := range r.db.bookings {
		if keep(bk) {
			out = append(out, copyOf(bk))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	return out
}

func (r *memBookings) FindNonCancelledByCar(_ context.Context, carID uuid.UUID) ([]*booking.Booking, error) {
	return r.filter(func(bk *booking.Booking) bool {
		return bk.CarID() == carID && bk.Status() != booking.StatusCancelled
	}), nil
}

func (r *memBookings) FindNonCancelledByDriver(_ context.Context, driverID uuid.UUID) ([]*booking.Booking, error) {
	return r.filter(func(bk *booking.Booking) bool {
		return bk.DriverID() != nil && *bk.DriverID() == driverID && bk.Status() != booking.StatusCancelled
	}), nil
}

func (r *memBookings) CountActiveByDriver(_ context.Context, driverID, exclude uuid.UUID) (int64, error) {
	found := r.filter(func(bk *booking.Booking) bool {
		return bk.ID() != exclude && bk.DriverID() != nil && *bk.DriverID() == driverID && bk.Status().IsActive()
	})
	return int64(len(found)), nil
}

func (r *memBookings) FindByCustomerID(_ context.Context, customerID uuid.UUID, page, limit int) ([]*booking.Booking, int64, error) {
	all := r.filter(func(bk *booking.Booking) bool { return bk.CustomerID() == customerID })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *memBookings) ListAll(_ context.Context, status *booking.BookingStatus, page, limit int) ([]*booking.Booking, int64, error) {
	all := r.filter(func(bk *booking.Booking) bool { return status == nil || bk.Status() == *status })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *memBookings) CountByStatus(_ context.Context) (map[string]int64, error) {
	counts := map[string]int64{}
	for _, bk := range r.filter(func(*booking.Booking) bool { return true }) {
		counts[bk.Status().String()]++
	}
	return counts, nil
}

func (r *memBookings) CountCreatedPerDay(_ context.Context, from, to time.Time) (map[string]int64, error) {
	counts := map[string]int64{}
	for _, bk := range r.filter(func(bk *booking.Booking) bool {
		return !bk.CreatedAt().Before(from) && bk.CreatedAt().Before(to)
	}) {
		counts[bk.CreatedAt().UTC().Format(DateLayout)]++
	}
	return counts, nil
}

func (r *memBookings) Save(_ context.Context, bk *booking.Booking) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.bookings {
		if existing.BookingCode() == bk.BookingCode() {
			return domain.NewConflictError("booking code already exists")
		}
	}
	r.db.bookings[bk.ID()] = copyOf(bk)
	return nil
}

func (r *memBookings) Update(_ context.Context, bk *booking.Booking) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored, ok := r.db.bookings[bk.ID()]
	if !ok {
		return domain.NewNotFoundError("Booking", bk.ID().String())
	}
	if err := checkVersion(stored.Version(), bk.Version(), "booking"); err != nil {
		return err
	}
	r.db.bookings[bk.ID()] = copyOf(bk)
	return nil
}

// --- cars ---

type memCars struct{ db *memDB }

func (r *memCars) FindByID(_ context.Context, id uuid.UUID) (*fleet.Car, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.cars[id]
	if !ok {
		return nil, domain.NewNotFoundError("Car", id.String())
	}
	return copyOf(c), nil
}

func (r *memCars) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*fleet.Car, error) {
	return r.FindByID(ctx, id)
}

func (r *memCars) FindAll(_ context.Context, activeOnly bool, page, limit int) ([]*fleet.Car, int64, error) {
	r.db.mu.Lock()
	var all []*fleet.Car
	for _, c := range r.db.cars {
		if !activeOnly || c.IsActive() {
			all = append(all, copyOf(c))
		}
	}
	r.db.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].Name() < all[j].Name() })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *memCars) CountAvailable(_ context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, c := range r.db.cars {
		if c.IsActive() && c.Status() == fleet.CarStatusAvailable {
			n++
		}
	}
	return n, nil
}

func (r *memCars) Save(_ context.Context, c *fleet.Car) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.cars[c.ID()] = copyOf(c)
	return nil
}

func (r *memCars) Update(_ context.Context, c *fleet.Car) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored, ok := r.db.cars[c.ID()]
	if !ok {
		return domain.NewNotFoundError("Car", c.ID().String())
	}
	if err := checkVersion(stored.Version(), c.Version(), "car"); err != nil {
		return err
	}
	r.db.cars[c.ID()] = copyOf(c)
	return nil
}

// --- staff ---

type memStaff struct{ db *memDB }

func (r *memStaff) FindByID(_ context.Context, id uuid.UUID) (*fleet.Staff, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.staff[id]
	if !ok {
		return nil, domain.NewNotFoundError("Staff", id.String())
	}
	return copyOf(s), nil
}

func (r *memStaff) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*fleet.Staff, error) {
	return r.FindByID(ctx, id)
}

func (r *memStaff) FindDrivers(_ context.Context) ([]*fleet.Staff, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*fleet.Staff
	for _, s := range r.db.staff {
		if s.IsDriver() {
			out = append(out, copyOf(s))
		}
	}
	return out, nil
}

func (r *memStaff) CountDriversByAvailability(_ context.Context, availability fleet.Availability) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, s := range r.db.staff {
		if s.IsDriver() && s.Availability() == availability {
			n++
		}
	}
	return n, nil
}

func (r *memStaff) ListUserIDs(_ context.Context) ([]uuid.UUID, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []uuid.UUID
	for _, s := range r.db.staff {
		out = append(out, s.UserID())
	}
	return out, nil
}

func (r *memStaff) Save(_ context.Context, s *fleet.Staff) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.staff[s.ID()] = copyOf(s)
	return nil
}

func (r *memStaff) Update(_ context.Context, s *fleet.Staff) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored, ok := r.db.staff[s.ID()]
	if !ok {
		return domain.NewNotFoundError("Staff", s.ID().String())
	}
	if err := checkVersion(stored.Version(), s.Version(), "staff"); err != nil {
		return err
	}
	r.db.staff[s.ID()] = copyOf(s)
	return nil
}

// --- driver schedules ---

type memSchedules struct{ db *memDB }

func (r *memSchedules) find(keep func(*fleet.DriverSchedule) bool) []*fleet.DriverSchedule {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*fleet.DriverSchedule
	for _, s := range r.db.schedules {
		if keep(s) {
			out = append(out, copyOf(s))
		}
	}
	return out
}

func (r *memSchedules) FindByStaffID(_ context.Context, staffID uuid.UUID) ([]*fleet.DriverSchedule, error) {
	return r.find(func(s *fleet.DriverSchedule) bool { return s.StaffID() == staffID }), nil
}

func (r *memSchedules) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*fleet.DriverSchedule, error) {
	return r.find(func(s *fleet.DriverSchedule) bool { return s.BelongsTo(bookingID) }), nil
}

func (r *memSchedules) Save(_ context.Context, s *fleet.DriverSchedule) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.schedules[s.ID()] = copyOf(s)
	return nil
}

func (r *memSchedules) Update(ctx context.Context, s *fleet.DriverSchedule) error {
	return r.Save(ctx, s)
}

func (r *memSchedules) DeleteByBookingID(_ context.Context, bookingID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, s := range r.db.schedules {
		if s.BelongsTo(bookingID) {
			delete(r.db.schedules, id)
		}
	}
	return nil
}

// --- maintenance ---

type memMaintenance struct{ db *memDB }

func (r *memMaintenance) FindByID(_ context.Context, id uuid.UUID) (*fleet.Maintenance, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m, ok := r.db.maintenance[id]
	if !ok {
		return nil, domain.NewNotFoundError("Maintenance", id.String())
	}
	return copyOf(m), nil
}

func (r *memMaintenance) FindByCarID(_ context.Context, carID uuid.UUID) ([]*fleet.Maintenance, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*fleet.Maintenance
	for _, m := range r.db.maintenance {
		if m.CarID() == carID {
			out = append(out, copyOf(m))
		}
	}
	return out, nil
}

func (r *memMaintenance) Save(_ context.Context, m *fleet.Maintenance) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.maintenance[m.ID()] = copyOf(m)
	return nil
}

func (r *memMaintenance) Update(ctx context.Context, m *fleet.Maintenance) error {
	return r.Save(ctx, m)
}

// --- extensions ---

type memExtensions struct{ db *memDB }

func (r *memExtensions) FindByID(_ context.Context, id uuid.UUID) (*allocation.ExtensionRequest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	e, ok := r.db.extensions[id]
	if !ok {
		return nil, domain.NewNotFoundError("BookingExtensionRequest", id.String())
	}
	return copyOf(e), nil
}

func (r *memExtensions) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*allocation.ExtensionRequest, error) {
	return r.FindByID(ctx, id)
}

func (r *memExtensions) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*allocation.ExtensionRequest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*allocation.ExtensionRequest
	for _, e := range r.db.extensions {
		if e.BookingID() == bookingID {
			out = append(out, copyOf(e))
		}
	}
	return out, nil
}

func (r *memExtensions) ListPending(_ context.Context, page, limit int) ([]*allocation.ExtensionRequest, int64, error) {
	r.db.mu.Lock()
	var all []*allocation.ExtensionRequest
	for _, e := range r.db.extensions {
		if e.Status() == allocation.ExtensionPending {
			all = append(all, copyOf(e))
		}
	}
	r.db.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].RequestDate().Before(all[j].RequestDate()) })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *memExtensions) Save(_ context.Context, e *allocation.ExtensionRequest) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.extensions[e.ID()] = copyOf(e)
	return nil
}

func (r *memExtensions) Update(ctx context.Context, e *allocation.ExtensionRequest) error {
	return r.Save(ctx, e)
}

// --- handover / return ---

type memHandOvers struct{ db *memDB }

func (r *memHandOvers) Save(_ context.Context, rec *allocation.HandOverRecord) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.handovers = append(r.db.handovers, copyOf(rec))
	return nil
}

func (r *memHandOvers) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*allocation.HandOverRecord, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*allocation.HandOverRecord
	for _, rec := range r.db.handovers {
		if rec.BookingID() == bookingID {
			out = append(out, copyOf(rec))
		}
	}
	return out, nil
}

type memReturns struct{ db *memDB }

func (r *memReturns) Save(_ context.Context, rec *allocation.ReturnRecord) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.returns = append(r.db.returns, copyOf(rec))
	return nil
}

func (r *memReturns) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*allocation.ReturnRecord, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*allocation.ReturnRecord
	for _, rec := range r.db.returns {
		if rec.BookingID() == bookingID {
			out = append(out, copyOf(rec))
		}
	}
	return out, nil
}

// --- payments ---

type memPayments struct{ db *memDB }

func (r *memPayments) FindByID(_ context.Context, id uuid.UUID) (*payment.Payment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.payments[id]
	if !ok {
		return nil, domain.NewNotFoundError("Payment", id.String())
	}
	return copyOf(p), nil
}

func (r *memPayments) FindLatestPaidByBooking(_ context.Context, bookingID uuid.UUID) (*payment.Payment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var latest *payment.Payment
	for _, p := range r.db.payments {
		if p.BookingID() == bookingID && p.IsPaid() && (latest == nil || p.CreatedAt().After(latest.CreatedAt())) {
			latest = p
		}
	}
	if latest == nil {
		return nil, domain.NewNotFoundError("Payment", bookingID.String())
	}
	return copyOf(latest), nil
}

func (r *memPayments) SumPaid(_ context.Context) (decimal.Decimal, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	total := decimal.Zero
	for _, p := range r.db.payments {
		if p.IsPaid() {
			total = total.Add(p.Amount())
		}
	}
	return total, nil
}

func (r *memPayments) Save(_ context.Context, p *payment.Payment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, exists := r.db.payments[p.ID()]; exists {
		return domain.NewConflictError("payment already recorded")
	}
	r.db.payments[p.ID()] = copyOf(p)
	return nil
}

// --- notifications ---

type memNotifications struct{ db *memDB }

func (r *memNotifications) Save(_ context.Context, n *notification.Notification) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.notifications[n.ID()] = copyOf(n)
	return nil
}

func (r *memNotifications) SaveAll(ctx context.Context, ns []*notification.Notification) error {
	for _, n := range ns {
		if err := r.Save(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func (r *memNotifications) FindByID(_ context.Context, id uuid.UUID) (*notification.Notification, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n, ok := r.db.notifications[id]
	if !ok {
		return nil, domain.NewNotFoundError("Notification", id.String())
	}
	return copyOf(n), nil
}

func (r *memNotifications) FindByUserID(_ context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]*notification.Notification, int64, error) {
	r.db.mu.Lock()
	var all []*notification.Notification
	for _, n := range r.db.notifications {
		if n.UserID() == userID && (!unreadOnly || !n.IsRead()) {
			all = append(all, copyOf(n))
		}
	}
	r.db.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt().After(all[j].CreatedAt()) })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *memNotifications) MarkRead(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n, ok := r.db.notifications[id]
	if !ok {
		return domain.NewNotFoundError("Notification", id.String())
	}
	c := copyOf(n)
	c.MarkRead()
	r.db.notifications[id] = c
	return nil
}

// --- audit ---

type memAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *memAudit) Save(_ context.Context, e audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *memAudit) FindByID(_ context.Context, id uuid.UUID) (*audit.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.ID == id {
			found := e
			return &found, nil
		}
	}
	return nil, domain.NewNotFoundError("AuditLog", id.String())
}

func (r *memAudit) List(_ context.Context, filter audit.Filter, page, limit int) ([]audit.Entry, int64, error) {
	r.mu.Lock()
	var all []audit.Entry
	for _, e := range r.entries {
		if (filter.EntityName == "" || e.EntityName == filter.EntityName) &&
			(filter.EntityID == "" || e.EntityID == filter.EntityID) {
			all = append(all, e)
		}
	}
	r.mu.Unlock()
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, page, limit), int64(len(all)), nil
}

// --- side-effect sinks ---

type sentNotification struct {
	UserID uuid.UUID
	Title  string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	fail bool
}

func (n *recordingNotifier) Send(_ context.Context, userID uuid.UUID, title, _ string) error {
	if n.fail {
		return errors.New("smtp relay down")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Title: title})
	return nil
}

func (n *recordingNotifier) titlesFor(userID uuid.UUID) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, s := range n.sent {
		if s.UserID == userID {
			out = append(out, s.Title)
		}
	}
	return out
}

type recordingAudit struct {
	mu      sync.Mutex
	actions []string
	panics  bool
}

func (a *recordingAudit) Log(_ context.Context, action, _, _ string, _ uuid.UUID, _ string) error {
	if a.panics {
		panic("audit table missing")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, action)
	return nil
}

type recordingPublisher struct {
	mu    sync.Mutex
	types []string
}

func (p *recordingPublisher) Publish(_ context.Context, _, eventType, _ string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, eventType)
	return nil
}

// --- fixture ---

var fixtureToday = time.Date(2030, 6, 1, 9, 30, 0, 0, time.UTC)

func day(d int) string {
	return fixtureToday.AddDate(0, 0, d).Format(DateLayout)
}

type fixture struct {
	db          *memDB
	stores      Stores
	notifier    *recordingNotifier
	audit       *recordingAudit
	publisher   *recordingPublisher
	bookings    *BookingService
	allocations *AllocationService
	payments    *PaymentService
	fleet       *FleetService

	car      *fleet.Car
	driver   *fleet.Staff
	customer Actor
	staff    Actor
}

func newFixture(opts ...BookingServiceOption) *fixture {
	db := newMemDB()
	stores := db.stores()
	logger := zap.NewNop()
	notifier := &recordingNotifier{}
	auditSink := &recordingAudit{}
	publisher := &recordingPublisher{}
	effects := NewSideEffects(async.NewDispatcher(logger, async.Inline()), notifier, auditSink, publisher, logger)
	pricing := booking.NewStandardPricingStrategy(booking.DefaultDriverDailyRate, booking.DefaultBookingFee)
	tx := memTx{db: db}

	opts = append([]BookingServiceOption{WithClock(func() time.Time { return fixtureToday })}, opts...)
	bookings := NewBookingService(tx, stores, pricing, effects, logger, opts...)

	f := &fixture{
		db:          db,
		stores:      stores,
		notifier:    notifier,
		audit:       auditSink,
		publisher:   publisher,
		bookings:    bookings,
		allocations: NewAllocationService(tx, stores, effects, logger),
		payments:    NewPaymentService(tx, stores, bookings, effects, logger),
		fleet:       NewFleetService(tx, stores, effects, logger),
		customer:    Actor{UserID: uuid.New(), Role: auth.RoleCustomer},
		staff:       Actor{UserID: uuid.New(), Role: auth.RoleStaff},
	}
	f.car = f.addCar(decimal.NewFromInt(1000))
	f.driver = f.addDriver()
	return f
}

func (f *fixture) addCar(rate decimal.Decimal) *fleet.Car {
	car, err := fleet.NewCar("Axio", "Toyota", "CAB-"+uuid.NewString()[:4], "Sedan", rate)
	if err != nil {
		panic(err)
	}
	_ = f.stores.Cars.Save(context.Background(), car)
	return car
}

func (f *fixture) addDriver() *fleet.Staff {
	driver, err := fleet.NewStaff(uuid.New(), "Kamal Silva", true)
	if err != nil {
		panic(err)
	}
	_ = f.stores.Staff.Save(context.Background(), driver)
	return driver
}

func (f *fixture) loadCar(id uuid.UUID) *fleet.Car {
	c, err := f.stores.Cars.FindByID(context.Background(), id)
	if err != nil {
		panic(err)
	}
	return c
}

func (f *fixture) loadStaff(id uuid.UUID) *fleet.Staff {
	s, err := f.stores.Staff.FindByID(context.Background(), id)
	if err != nil {
		panic(err)
	}
	return s
}

func (f *fixture) loadBooking(id uuid.UUID) *booking.Booking {
	bk, err := f.stores.Bookings.FindByID(context.Background(), id)
	if err != nil {
		panic(err)
	}
	return bk
}

func (f *fixture) bookingCount() int {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return len(f.db.bookings)
}

func (f *fixture) schedulesOf(staffID uuid.UUID) []*fleet.DriverSchedule {
	s, _ := f.stores.Schedules.FindByStaffID(context.Background(), staffID)
	return s
}

// createBooking books f.car from start to end days after today, with f.driver when withDriver is set.
func (f *fixture) createBooking(start, end int, withDriver bool) (*BookingDTO, error) {
	req := CreateBookingRequest{
		CarID:     f.car.ID(),
		StartDate: day(start),
		EndDate:   day(end),
	}
	if withDriver {
		driverID := f.driver.ID()
		req.DriverID = &driverID
		req.DriverRequired = true
		req.PickupLocation = "Bandaranaike Airport"
	}
	return f.bookings.CreateBooking(context.Background(), f.customer.UserID, req)
}

// confirmedBooking creates and pays for a booking.
func (f *fixture) confirmedBooking(start, end int, withDriver bool) *BookingDTO {
	bk, err := f.createBooking(start, end, withDriver)
	if err != nil {
		panic(err)
	}
	res, err := f.payments.Pay(context.Background(), bk.ID, f.customer, PayRequest{})
	if err != nil {
		panic(err)
	}
	return &res.Booking
}
