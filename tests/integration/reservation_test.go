//go:build integration

package integration

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dropzonehq/reservation-service/internal/models"
	"github.com/dropzonehq/reservation-service/internal/repository"
	"github.com/dropzonehq/reservation-service/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := models.ParseDay(s)
	require.NoError(t, err)
	return d
}

type services struct {
	booking  service.BookingService
	waitlist service.WaitlistService
	jump     service.JumpService
}

func newServices() services {
	windowRepo := repository.NewWindowRepository(testDB)
	waitlistRepo := repository.NewWaitlistRepository(testDB)
	jumpRepo := repository.NewJumpRepository(testDB)
	userRepo := repository.NewUserRepository(testDB)
	cascade := service.NewCascadeHandler(jumpRepo, waitlistRepo)

	return services{
		booking:  service.NewBookingService(windowRepo, jumpRepo, waitlistRepo, userRepo, cascade, nil),
		waitlist: service.NewWaitlistService(waitlistRepo, windowRepo, jumpRepo),
		jump:     service.NewJumpService(jumpRepo, waitlistRepo, windowRepo, nil),
	}
}

func createWindow(t *testing.T, svcs services, start string, createdBy string) *models.BookingWindow {
	t.Helper()
	window, err := svcs.booking.CreateBookingWindow(t.Context(), service.CreateWindowInput{
		NumJumpers:        2,
		WindowStartDate:   day(t, start),
		IdealizedJumpDate: day(t, start),
		BookingZone:       "north",
		CreatedBy:         createdBy,
	})
	require.NoError(t, err)
	return window
}

// Window A occupies 03-01..03-03: 03-02 must not be bookable, 03-04 must be.
func TestWindowAvailability(t *testing.T) {
	cleanTables()
	svcs := newServices()

	createWindow(t, svcs, "2024-03-01", "user-a")

	avail, err := svcs.booking.GetAvailability(t.Context(), day(t, "2024-03-02"))
	require.NoError(t, err)
	assert.False(t, avail.Bookable)
	assert.True(t, avail.PartOfWindow)

	avail, err = svcs.booking.GetAvailability(t.Context(), day(t, "2024-03-04"))
	require.NoError(t, err)
	assert.True(t, avail.Bookable)
	assert.False(t, avail.PartOfWindow)
}

// A second window overlapping the first must be rejected with the span
// conflict error.
func TestWindowCreation_SpanConflict(t *testing.T) {
	cleanTables()
	svcs := newServices()

	createWindow(t, svcs, "2024-03-01", "user-a")

	_, err := svcs.booking.CreateBookingWindow(t.Context(), service.CreateWindowInput{
		NumJumpers:        1,
		WindowStartDate:   day(t, "2024-03-03"),
		IdealizedJumpDate: day(t, "2024-03-03"),
		BookingZone:       "north",
		CreatedBy:         "user-b",
	})
	assert.ErrorIs(t, err, service.ErrDateSpanUnavailable)

	// Touching the span from the left is a conflict too
	_, err = svcs.booking.CreateBookingWindow(t.Context(), service.CreateWindowInput{
		NumJumpers:        1,
		WindowStartDate:   day(t, "2024-02-28"),
		IdealizedJumpDate: day(t, "2024-02-29"),
		BookingZone:       "south",
		CreatedBy:         "user-c",
	})
	assert.ErrorIs(t, err, service.ErrDateSpanUnavailable)
}

// 10 users race to book overlapping spans; exactly one window may win.
func TestConcurrentWindowCreation(t *testing.T) {
	cleanTables()
	svcs := newServices()

	attempts := 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0

	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func(idx int) {
			defer wg.Done()
			_, err := svcs.booking.CreateBookingWindow(t.Context(), service.CreateWindowInput{
				NumJumpers:        1,
				WindowStartDate:   day(t, "2024-05-01"),
				IdealizedJumpDate: day(t, "2024-05-02"),
				BookingZone:       "north",
				CreatedBy:         fmt.Sprintf("user-%02d", idx),
			})
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created, "only one of the racing creations may succeed")

	var count int64
	testDB.Model(&models.BookingWindow{}).Where("status <> ?", models.WindowCanceled).Count(&count)
	assert.Equal(t, int64(1), count)
}

// U1 joins an occupied day (no waitlist yet) -> position 1, "created"
// message. U2 joins -> position 2. U1 cancels -> U2 renumbered to 1.
func TestWaitlistJoinAndRenumber(t *testing.T) {
	cleanTables()
	svcs := newServices()

	window := createWindow(t, svcs, "2024-03-01", "user-a")

	r1, err := svcs.waitlist.JoinWaitlist(t.Context(), day(t, "2024-03-02"), window.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, r1.UserPosition)
	assert.True(t, r1.Created)
	assert.Contains(t, r1.Message, "created")

	r2, err := svcs.waitlist.JoinWaitlist(t.Context(), day(t, "2024-03-02"), window.ID, "user-2")
	require.NoError(t, err)
	assert.Equal(t, 2, r2.UserPosition)
	assert.False(t, r2.Created)

	// Duplicate active enrollment is rejected
	_, err = svcs.waitlist.JoinWaitlist(t.Context(), day(t, "2024-03-02"), window.ID, "user-1")
	assert.ErrorIs(t, err, service.ErrAlreadyOnWaitlist)

	require.NoError(t, svcs.waitlist.CancelWaitlistEntry(t.Context(), r1.Entry.ID))

	info, err := svcs.waitlist.GetWaitlistInfo(t.Context(), day(t, "2024-03-02"), "user-2")
	require.NoError(t, err)
	assert.True(t, info.Exists)
	assert.Equal(t, 1, info.TotalCount)
	require.NotNil(t, info.UserPosition)
	assert.Equal(t, 1, *info.UserPosition)

	// Canceled entry keeps its latest position for audit
	var canceled models.WaitlistEntry
	require.NoError(t, testDB.First(&canceled, r1.Entry.ID).Error)
	assert.Equal(t, models.EntryCanceled, canceled.Status)
	assert.Nil(t, canceled.ActivePosition)
	assert.Equal(t, 1, canceled.LatestPosition)

	// The emptied-or-not waitlist stays OPENED and re-joinable
	r3, err := svcs.waitlist.JoinWaitlist(t.Context(), day(t, "2024-03-02"), window.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, r3.UserPosition)
}

// 20 users join the same day concurrently; positions must come out 1..20
// with no gaps or duplicates.
func TestConcurrentWaitlistJoins(t *testing.T) {
	cleanTables()
	svcs := newServices()

	window := createWindow(t, svcs, "2024-03-01", "user-a")

	totalUsers := 20
	var wg sync.WaitGroup
	wg.Add(totalUsers)
	for i := 0; i < totalUsers; i++ {
		go func(idx int) {
			defer wg.Done()
			_, err := svcs.waitlist.JoinWaitlist(t.Context(), day(t, "2024-03-02"), window.ID, fmt.Sprintf("user-%03d", idx))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	var entries []models.WaitlistEntry
	require.NoError(t, testDB.Where("status = ?", models.EntryOpen).Order("created_at ASC, id ASC").Find(&entries).Error)
	require.Len(t, entries, totalUsers)

	seen := make(map[int]bool)
	for _, e := range entries {
		require.NotNil(t, e.ActivePosition)
		assert.False(t, seen[*e.ActivePosition], "duplicate position %d", *e.ActivePosition)
		seen[*e.ActivePosition] = true
	}
	for p := 1; p <= totalUsers; p++ {
		assert.True(t, seen[p], "missing position %d", p)
	}
}

// Admin reconciles confirmed dates: [03-01] -> [03-02] cancels the 03-01
// jump, creates a 03-02 jump, and the window reports SCHEDULED.
func TestModifyBookingDates_DiffSemantics(t *testing.T) {
	cleanTables()
	svcs := newServices()

	window := createWindow(t, svcs, "2024-03-01", "user-a")

	// Date edits are gated on the deposit: a fresh window rejects them and
	// stays PENDING_DEPOSIT.
	_, err := svcs.booking.ModifyBookingDates(t.Context(), window.ID, "user-a", "admin-1", []time.Time{day(t, "2024-03-01")})
	assert.ErrorIs(t, err, service.ErrDepositNotPending)

	var pending models.BookingWindow
	require.NoError(t, testDB.First(&pending, window.ID).Error)
	assert.Equal(t, models.WindowPendingDeposit, pending.Status)

	_, err = svcs.booking.ConfirmDeposit(t.Context(), window.ID)
	require.NoError(t, err)

	r1, err := svcs.booking.ModifyBookingDates(t.Context(), window.ID, "user-a", "admin-1", []time.Time{day(t, "2024-03-01")})
	require.NoError(t, err)
	require.Len(t, r1.ActiveJumps, 1)
	assert.Equal(t, models.WindowScheduled, r1.Window.Status)
	firstJumpID := r1.ActiveJumps[0].ID

	r2, err := svcs.booking.ModifyBookingDates(t.Context(), window.ID, "user-a", "admin-1", []time.Time{day(t, "2024-03-02")})
	require.NoError(t, err)
	require.Len(t, r2.ActiveJumps, 1)
	assert.Equal(t, models.WindowScheduled, r2.Window.Status)
	assert.True(t, models.SameDay(day(t, "2024-03-02"), r2.ActiveJumps[0].JumpDate))

	var old models.ScheduledJump
	require.NoError(t, testDB.First(&old, firstJumpID).Error)
	assert.Equal(t, models.JumpCanceled, old.Status)

	// Clearing every date drops the window back to UNSCHEDULED
	r3, err := svcs.booking.ModifyBookingDates(t.Context(), window.ID, "user-a", "admin-1", nil)
	require.NoError(t, err)
	assert.Empty(t, r3.ActiveJumps)
	assert.Equal(t, models.WindowUnscheduled, r3.Window.Status)

	// Dates outside the 3-day span are rejected
	_, err = svcs.booking.ModifyBookingDates(t.Context(), window.ID, "user-a", "admin-1", []time.Time{day(t, "2024-03-07")})
	assert.ErrorIs(t, err, service.ErrDateOutsideWindow)
}

// Promoting the position-1 entry yields one WAITLIST-method jump, confirms
// the waitlist, and vacates position 1; promoting anyone else fails.
func TestWaitlistPromotion(t *testing.T) {
	cleanTables()
	svcs := newServices()

	window := createWindow(t, svcs, "2024-03-01", "user-a")

	r1, err := svcs.waitlist.JoinWaitlist(t.Context(), day(t, "2024-03-02"), window.ID, "user-1")
	require.NoError(t, err)
	r2, err := svcs.waitlist.JoinWaitlist(t.Context(), day(t, "2024-03-02"), window.ID, "user-2")
	require.NoError(t, err)

	// Position 2 cannot be promoted
	_, err = svcs.jump.ScheduleFromWaitlistEntry(t.Context(), r1.Waitlist.ID, r2.Entry.ID, "user-2", "admin-1")
	assert.ErrorIs(t, err, service.ErrNotFrontOfQueue)

	jump, err := svcs.jump.ScheduleFromWaitlistEntry(t.Context(), r1.Waitlist.ID, r1.Entry.ID, "user-1", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.MethodWaitlist, jump.SchedulingMethod)
	assert.Equal(t, models.JumpScheduled, jump.Status)
	require.NotNil(t, jump.AssociatedWaitlistID)
	assert.Equal(t, r1.Waitlist.ID, *jump.AssociatedWaitlistID)

	var waitlist models.Waitlist
	require.NoError(t, testDB.First(&waitlist, r1.Waitlist.ID).Error)
	assert.Equal(t, models.WaitlistConfirmed, waitlist.Status)

	// Promoted entry is CONFIRMED and out of the active queue; the next
	// entry shifted down to position 1
	var promoted, next models.WaitlistEntry
	require.NoError(t, testDB.First(&promoted, r1.Entry.ID).Error)
	assert.Equal(t, models.EntryConfirmed, promoted.Status)
	assert.Nil(t, promoted.ActivePosition)

	require.NoError(t, testDB.First(&next, r2.Entry.ID).Error)
	require.NotNil(t, next.ActivePosition)
	assert.Equal(t, 1, *next.ActivePosition)

	// Second promotion attempt on the already-promoted entry fails
	_, err = svcs.jump.ScheduleFromWaitlistEntry(t.Context(), r1.Waitlist.ID, r1.Entry.ID, "user-1", "admin-1")
	assert.ErrorIs(t, err, service.ErrNotFrontOfQueue)

	// The confirmed waitlist resolves to exactly its one jump
	active, err := svcs.jump.ActiveJumpForWaitlist(t.Context(), r1.Waitlist.ID)
	require.NoError(t, err)
	assert.Equal(t, jump.ID, active.ID)
}

// Canceling a jump is a leaf: nothing is auto-promoted.
func TestCancelJump_NoAutoPromotion(t *testing.T) {
	cleanTables()
	svcs := newServices()

	window := createWindow(t, svcs, "2024-03-01", "user-a")
	r1, err := svcs.waitlist.JoinWaitlist(t.Context(), day(t, "2024-03-02"), window.ID, "user-1")
	require.NoError(t, err)
	_, err = svcs.waitlist.JoinWaitlist(t.Context(), day(t, "2024-03-02"), window.ID, "user-2")
	require.NoError(t, err)

	jump, err := svcs.jump.ScheduleFromWaitlistEntry(t.Context(), r1.Waitlist.ID, r1.Entry.ID, "user-1", "admin-1")
	require.NoError(t, err)

	require.NoError(t, svcs.jump.CancelScheduledJump(t.Context(), jump.ID))
	// Repeat cancel is a no-op success
	require.NoError(t, svcs.jump.CancelScheduledJump(t.Context(), jump.ID))

	var jumps int64
	testDB.Model(&models.ScheduledJump{}).Where("status <> ?", models.JumpCanceled).Count(&jumps)
	assert.Equal(t, int64(0), jumps, "no replacement jump may appear without an explicit promotion")
}

// Canceling a window cancels its active jumps, closes its waitlists, keeps
// entries as history, and is idempotent.
func TestCancelWindow_Cascade(t *testing.T) {
	cleanTables()
	svcs := newServices()

	window := createWindow(t, svcs, "2024-03-01", "user-a")

	_, err := svcs.booking.ConfirmDeposit(t.Context(), window.ID)
	require.NoError(t, err)

	_, err = svcs.booking.ModifyBookingDates(t.Context(), window.ID, "user-a", "admin-1",
		[]time.Time{day(t, "2024-03-01"), day(t, "2024-03-03")})
	require.NoError(t, err)

	r1, err := svcs.waitlist.JoinWaitlist(t.Context(), day(t, "2024-03-02"), window.ID, "user-1")
	require.NoError(t, err)

	require.NoError(t, svcs.booking.CancelBookingWindow(t.Context(), window.ID))

	var w models.BookingWindow
	require.NoError(t, testDB.First(&w, window.ID).Error)
	assert.Equal(t, models.WindowCanceled, w.Status)

	var activeJumps int64
	testDB.Model(&models.ScheduledJump{}).
		Where("associated_booking_id = ? AND status <> ?", window.ID, models.JumpCanceled).
		Count(&activeJumps)
	assert.Equal(t, int64(0), activeJumps)

	var waitlist models.Waitlist
	require.NoError(t, testDB.First(&waitlist, r1.Waitlist.ID).Error)
	assert.Equal(t, models.WaitlistClosed, waitlist.Status)

	var entries int64
	testDB.Model(&models.WaitlistEntry{}).Where("waitlist_id = ?", waitlist.ID).Count(&entries)
	assert.Equal(t, int64(1), entries, "entries survive as historical records")

	// Idempotent on repeat
	require.NoError(t, svcs.booking.CancelBookingWindow(t.Context(), window.ID))

	// The span is free again
	avail, err := svcs.booking.GetAvailability(t.Context(), day(t, "2024-03-01"))
	require.NoError(t, err)
	assert.True(t, avail.Bookable)
}

// Deposit confirmation and completion walk the window through its lifecycle.
func TestWindowLifecycle(t *testing.T) {
	cleanTables()
	svcs := newServices()

	window := createWindow(t, svcs, "2024-03-01", "user-a")
	assert.Equal(t, models.WindowPendingDeposit, window.Status)

	w, err := svcs.booking.ConfirmDeposit(t.Context(), window.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WindowUnscheduled, w.Status)

	// Double deposit is a conflict
	_, err = svcs.booking.ConfirmDeposit(t.Context(), window.ID)
	assert.ErrorIs(t, err, service.ErrDepositNotPending)

	r, err := svcs.booking.ModifyBookingDates(t.Context(), window.ID, "user-a", "admin-1", []time.Time{day(t, "2024-03-01")})
	require.NoError(t, err)
	assert.Equal(t, models.WindowScheduled, r.Window.Status)

	jump, err := svcs.jump.CompleteScheduledJump(t.Context(), r.ActiveJumps[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.JumpCompleted, jump.Status)

	require.NoError(t, testDB.First(&w, window.ID).Error)
	assert.Equal(t, models.WindowCompleted, w.Status)
}

// Completing a jump whose window row is gone must surface the typed
// not-found error, not a raw storage error.
func TestCompleteJump_MissingWindow(t *testing.T) {
	cleanTables()
	svcs := newServices()

	jump := &models.ScheduledJump{
		JumpDate:            day(t, "2024-03-01"),
		BookingZone:         "north",
		NumJumpers:          1,
		SchedulingMethod:    models.MethodBookingWindow,
		Status:              models.JumpScheduled,
		BookedBy:            "user-a",
		ConfirmedBy:         "admin-1",
		AssociatedBookingID: 424242,
	}
	require.NoError(t, testDB.Create(jump).Error)

	_, err := svcs.jump.CompleteScheduledJump(t.Context(), jump.ID)
	assert.ErrorIs(t, err, service.ErrWindowNotFound)
}

func TestGetReservationData(t *testing.T) {
	cleanTables()
	svcs := newServices()

	require.NoError(t, testDB.Create(&models.User{ID: "user-a", Name: "Ada", Email: "ada@example.com"}).Error)
	require.NoError(t, testDB.Create(&models.User{ID: "user-1", Name: "Lin"}).Error)

	window := createWindow(t, svcs, "2024-03-01", "user-a")
	_, err := svcs.waitlist.JoinWaitlist(t.Context(), day(t, "2024-03-02"), window.ID, "user-1")
	require.NoError(t, err)

	data, err := svcs.booking.GetReservationData(t.Context(), nil, nil)
	require.NoError(t, err)
	assert.Len(t, data.Windows, 1)
	assert.Len(t, data.Waitlists, 1)
	require.Len(t, data.Waitlists[0].Entries, 1)
	assert.Len(t, data.Users, 2)

	// Date filter excludes the window
	from := day(t, "2024-04-01")
	data, err = svcs.booking.GetReservationData(t.Context(), &from, nil)
	require.NoError(t, err)
	assert.Empty(t, data.Windows)
}
