// Package testutil holds in-memory stand-ins for the Postgres store, the
// blob store and the delivery channel.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rx3lixir/golos/internal/db"
)

// MemStore is a db.Store kept in maps. It honours the same visibility and
// uniqueness rules as the Postgres store. Setting an operation name in Fail
// makes that operation return the given error.
type MemStore struct {
	mu sync.Mutex

	Users         map[uuid.UUID]*db.User
	Recordings    map[uuid.UUID]*db.Recording
	Comments      map[uuid.UUID]*db.Comment
	Ratings       map[uuid.UUID]*db.Rating
	Questions     map[uuid.UUID]*db.Question
	Answers       map[uuid.UUID]*db.Answer
	Notifications map[uuid.UUID][]*db.Notification

	Fail map[string]error

	clock time.Time
}

var _ db.Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		Users:         make(map[uuid.UUID]*db.User),
		Recordings:    make(map[uuid.UUID]*db.Recording),
		Comments:      make(map[uuid.UUID]*db.Comment),
		Ratings:       make(map[uuid.UUID]*db.Rating),
		Questions:     make(map[uuid.UUID]*db.Question),
		Answers:       make(map[uuid.UUID]*db.Answer),
		Notifications: make(map[uuid.UUID][]*db.Notification),
		Fail:          make(map[string]error),
		clock:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// FailOn makes op return err until cleared with FailOn(op, nil)
func (m *MemStore) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.Fail, op)
		return
	}
	m.Fail[op] = err
}

func (m *MemStore) fail(op string) error {
	return m.Fail[op]
}

// tick hands out strictly increasing timestamps so list order is stable
func (m *MemStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

// Users

func (m *MemStore) CreateUser(_ context.Context, user *db.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateUser"); err != nil {
		return err
	}

	for _, u := range m.Users {
		if u.Email == user.Email {
			return db.ErrConflict
		}
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := m.tick()
	user.Active = true
	user.CreatedAt = now
	user.UpdatedAt = now

	cp := *user
	m.Users[user.ID] = &cp
	return nil
}

func (m *MemStore) GetUserByID(_ context.Context, id uuid.UUID) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetUserByID"); err != nil {
		return nil, err
	}

	u, ok := m.Users[id]
	if !ok || !u.Active {
		return nil, db.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemStore) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.Users {
		if u.Email == email && u.Active {
			cp := *u
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *MemStore) UpdateUser(_ context.Context, user *db.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateUser"); err != nil {
		return err
	}

	u, ok := m.Users[user.ID]
	if !ok || !u.Active {
		return db.ErrNotFound
	}
	for id, other := range m.Users {
		if id != user.ID && other.Email == user.Email {
			return db.ErrConflict
		}
	}

	u.Name = user.Name
	u.Email = user.Email
	u.Photo = user.Photo
	u.UpdatedAt = m.tick()
	user.UpdatedAt = u.UpdatedAt
	return nil
}

func (m *MemStore) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdatePassword"); err != nil {
		return err
	}

	u, ok := m.Users[id]
	if !ok || !u.Active {
		return db.ErrNotFound
	}
	u.Password = hash
	u.UpdatedAt = m.tick()
	return nil
}

func (m *MemStore) DeactivateUser(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeactivateUser"); err != nil {
		return err
	}

	u, ok := m.Users[id]
	if !ok || !u.Active {
		return db.ErrNotFound
	}
	u.Active = false
	return nil
}

// Recordings

func (m *MemStore) CreateRecording(_ context.Context, rec *db.Recording) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateRecording"); err != nil {
		return err
	}

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := m.tick()
	rec.Active = true
	rec.CreatedAt = now
	rec.UpdatedAt = now

	cp := *rec
	m.Recordings[rec.ID] = &cp
	return nil
}

func (m *MemStore) GetRecordingByID(_ context.Context, id uuid.UUID) (*db.Recording, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.Recordings[id]
	if !ok || !r.Active {
		return nil, db.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MemStore) ListRecordings(_ context.Context, filter db.ListFilter) ([]*db.Recording, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*db.Recording{}
	for _, r := range m.Recordings {
		if !r.Active || (filter.UserID != nil && r.UserID != *filter.UserID) {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch filter.Sort {
		case db.SortTopRated:
			if a.RatingsAverage != b.RatingsAverage {
				return a.RatingsAverage > b.RatingsAverage
			}
			if a.RatingsQuantity != b.RatingsQuantity {
				return a.RatingsQuantity > b.RatingsQuantity
			}
		case db.SortMostCommented:
			if a.CommentsQuantity != b.CommentsQuantity {
				return a.CommentsQuantity > b.CommentsQuantity
			}
		}
		return a.CreatedAt.After(b.CreatedAt)
	})

	return paginate(out, filter.Page), nil
}

func (m *MemStore) UpdateRecording(_ context.Context, rec *db.Recording) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.Recordings[rec.ID]
	if !ok || !r.Active {
		return db.ErrNotFound
	}
	r.Title = rec.Title
	r.Description = rec.Description
	r.UpdatedAt = m.tick()
	rec.UpdatedAt = r.UpdatedAt
	return nil
}

func (m *MemStore) DeleteRecording(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteRecording"); err != nil {
		return err
	}

	if _, ok := m.Recordings[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.Recordings, id)
	return nil
}

func (m *MemStore) DeactivateRecordingsByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeactivateRecordingsByUser"); err != nil {
		return 0, err
	}

	var n int64
	for _, r := range m.Recordings {
		if r.UserID == userID && r.Active {
			r.Active = false
			n++
		}
	}
	return n, nil
}

func (m *MemStore) RecomputeRecordingRatings(_ context.Context, id uuid.UUID, summarize func(db.RatingStats) db.RatingSummary) (db.RatingSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("RecomputeRecordingRatings"); err != nil {
		return db.RatingSummary{}, err
	}

	rec, ok := m.Recordings[id]
	if !ok {
		return db.RatingSummary{}, db.ErrNotFound
	}

	var stats db.RatingStats
	for _, r := range m.Ratings {
		if r.RecordingID == id {
			stats.Count++
			stats.Sum += r.Rating
		}
	}

	summary := summarize(stats)
	rec.RatingsQuantity = summary.Quantity
	rec.RatingsAverage = summary.Average
	return summary, nil
}

func (m *MemStore) RecomputeRecordingComments(_ context.Context, id uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("RecomputeRecordingComments"); err != nil {
		return 0, err
	}

	rec, ok := m.Recordings[id]
	if !ok {
		return 0, db.ErrNotFound
	}

	count := 0
	for _, c := range m.Comments {
		if c.RecordingID == id {
			count++
		}
	}
	rec.CommentsQuantity = count
	return count, nil
}

// Comments

func (m *MemStore) CreateComment(_ context.Context, c *db.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateComment"); err != nil {
		return err
	}

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := m.tick()
	c.CreatedAt = now
	c.UpdatedAt = now

	cp := *c
	m.Comments[c.ID] = &cp
	return nil
}

func (m *MemStore) GetCommentByID(_ context.Context, id uuid.UUID) (*db.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.Comments[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MemStore) ListCommentsByRecording(_ context.Context, recordingID uuid.UUID) ([]*db.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListCommentsByRecording"); err != nil {
		return nil, err
	}

	out := []*db.Comment{}
	for _, c := range m.Comments {
		if c.RecordingID == recordingID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemStore) UpdateComment(_ context.Context, c *db.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.Comments[c.ID]
	if !ok {
		return db.ErrNotFound
	}
	stored.TextComment = c.TextComment
	stored.VoiceComment = c.VoiceComment
	stored.UpdatedAt = m.tick()
	c.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m *MemStore) DeleteComment(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Comments[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.Comments, id)
	return nil
}

func (m *MemStore) DeleteCommentsByRecording(_ context.Context, recordingID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteCommentsByRecording"); err != nil {
		return 0, err
	}

	var n int64
	for id, c := range m.Comments {
		if c.RecordingID == recordingID {
			delete(m.Comments, id)
			n++
		}
	}
	return n, nil
}

// Ratings

func (m *MemStore) UpsertRating(_ context.Context, r *db.Rating) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpsertRating"); err != nil {
		return false, err
	}

	now := m.tick()
	for _, existing := range m.Ratings {
		if existing.RecordingID == r.RecordingID && existing.UserID == r.UserID {
			existing.Rating = r.Rating
			existing.UpdatedAt = now
			*r = *existing
			return false, nil
		}
	}

	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.CreatedAt = now
	r.UpdatedAt = now

	cp := *r
	m.Ratings[r.ID] = &cp
	return true, nil
}

func (m *MemStore) GetRatingByID(_ context.Context, id uuid.UUID) (*db.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.Ratings[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MemStore) GetUserRating(_ context.Context, recordingID, userID uuid.UUID) (*db.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.Ratings {
		if r.RecordingID == recordingID && r.UserID == userID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *MemStore) ListRatingsByRecording(_ context.Context, recordingID uuid.UUID) ([]*db.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*db.Rating{}
	for _, r := range m.Ratings {
		if r.RecordingID == recordingID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemStore) DeleteRating(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Ratings[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.Ratings, id)
	return nil
}

func (m *MemStore) DeleteRatingsByRecording(_ context.Context, recordingID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteRatingsByRecording"); err != nil {
		return 0, err
	}

	var n int64
	for id, r := range m.Ratings {
		if r.RecordingID == recordingID {
			delete(m.Ratings, id)
			n++
		}
	}
	return n, nil
}

// Questions

func (m *MemStore) CreateQuestion(_ context.Context, q *db.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateQuestion"); err != nil {
		return err
	}

	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	now := m.tick()
	q.Active = true
	q.CreatedAt = now
	q.UpdatedAt = now

	cp := *q
	m.Questions[q.ID] = &cp
	return nil
}

func (m *MemStore) GetQuestionByID(_ context.Context, id uuid.UUID) (*db.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.Questions[id]
	if !ok || !q.Active {
		return nil, db.ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (m *MemStore) ListQuestions(_ context.Context, filter db.ListFilter) ([]*db.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*db.Question{}
	for _, q := range m.Questions {
		if !q.Active || (filter.UserID != nil && q.UserID != *filter.UserID) {
			continue
		}
		cp := *q
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	return paginate(out, filter.Page), nil
}

func (m *MemStore) UpdateQuestion(_ context.Context, q *db.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.Questions[q.ID]
	if !ok || !stored.Active {
		return db.ErrNotFound
	}
	stored.Title = q.Title
	stored.TextQuestion = q.TextQuestion
	stored.VoiceQuestion = q.VoiceQuestion
	stored.UpdatedAt = m.tick()
	q.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m *MemStore) DeleteQuestion(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Questions[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.Questions, id)
	return nil
}

func (m *MemStore) DeactivateQuestionsByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeactivateQuestionsByUser"); err != nil {
		return 0, err
	}

	var n int64
	for _, q := range m.Questions {
		if q.UserID == userID && q.Active {
			q.Active = false
			n++
		}
	}
	return n, nil
}

func (m *MemStore) RecomputeQuestionAnswers(_ context.Context, id uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("RecomputeQuestionAnswers"); err != nil {
		return 0, err
	}

	q, ok := m.Questions[id]
	if !ok {
		return 0, db.ErrNotFound
	}

	count := 0
	for _, a := range m.Answers {
		if a.QuestionID == id {
			count++
		}
	}
	q.AnswersQuantity = count
	return count, nil
}

// Answers

func (m *MemStore) CreateAnswer(_ context.Context, a *db.Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateAnswer"); err != nil {
		return err
	}

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := m.tick()
	a.CreatedAt = now
	a.UpdatedAt = now

	cp := *a
	m.Answers[a.ID] = &cp
	return nil
}

func (m *MemStore) GetAnswerByID(_ context.Context, id uuid.UUID) (*db.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.Answers[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MemStore) ListAnswersByQuestion(_ context.Context, questionID uuid.UUID) ([]*db.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*db.Answer{}
	for _, a := range m.Answers {
		if a.QuestionID == questionID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemStore) UpdateAnswer(_ context.Context, a *db.Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.Answers[a.ID]
	if !ok {
		return db.ErrNotFound
	}
	stored.TextAnswer = a.TextAnswer
	stored.VoiceAnswer = a.VoiceAnswer
	stored.UpdatedAt = m.tick()
	a.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m *MemStore) DeleteAnswer(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Answers[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.Answers, id)
	return nil
}

func (m *MemStore) DeleteAnswersByQuestion(_ context.Context, questionID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteAnswersByQuestion"); err != nil {
		return 0, err
	}

	var n int64
	for id, a := range m.Answers {
		if a.QuestionID == questionID {
			delete(m.Answers, id)
			n++
		}
	}
	return n, nil
}

// Notifications

func (m *MemStore) AppendNotification(_ context.Context, userID uuid.UUID, n *db.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("AppendNotification"); err != nil {
		return err
	}
	if err := n.Check(); err != nil {
		return err
	}

	u, ok := m.Users[userID]
	if !ok {
		return db.ErrNotFound
	}

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = m.tick()
	}

	cp := *n
	m.Notifications[userID] = append(m.Notifications[userID], &cp)
	u.UnreadNotifications++
	return nil
}

func (m *MemStore) ListNotifications(_ context.Context, userID uuid.UUID, page db.Page) ([]*db.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*db.Notification, 0, len(m.Notifications[userID]))
	for _, n := range m.Notifications[userID] {
		cp := *n
		out = append(out, &cp)
	}
	return paginate(out, page), nil
}

func (m *MemStore) MarkNotificationsRead(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.Users[userID]
	if !ok || !u.Active {
		return db.ErrNotFound
	}
	u.UnreadNotifications = 0
	return nil
}

func paginate[T any](items []T, page db.Page) []T {
	page = page.Normalize()
	if page.Offset >= len(items) {
		return items[:0]
	}
	end := min(page.Offset+page.Limit, len(items))
	return items[page.Offset:end]
}
