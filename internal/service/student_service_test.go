package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gate-violation-api/internal/dto"
	"github.com/noah-isme/gate-violation-api/internal/models"
	appErrors "github.com/noah-isme/gate-violation-api/pkg/errors"
)

type studentRepoMock struct {
	students map[int64]*models.Student
	codes    map[string]bool
	list     []models.StudentSummary
	created  *models.Student
	updated  *models.Student
	filter   models.StudentFilter
}

func (m *studentRepoMock) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentSummary, int, error) {
	m.filter = filter
	return m.list, len(m.list), nil
}

func (m *studentRepoMock) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		clone := *s
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (m *studentRepoMock) ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error) {
	return m.codes[code], nil
}

func (m *studentRepoMock) Create(ctx context.Context, student *models.Student) error {
	student.ID = 77
	m.created = student
	return nil
}

func (m *studentRepoMock) Update(ctx context.Context, student *models.Student) error {
	m.updated = student
	return nil
}

type cardRepoMock struct {
	cards       map[int64]*models.StudentCard
	codes       map[string]bool
	created     *models.StudentCard
	deactivated []int64
}

func (m *cardRepoMock) FindByID(ctx context.Context, id int64) (*models.StudentCard, error) {
	if c, ok := m.cards[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *cardRepoMock) ListByStudent(ctx context.Context, studentID int64) ([]models.StudentCard, error) {
	var out []models.StudentCard
	for _, c := range m.cards {
		if c.StudentID == studentID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *cardRepoMock) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return m.codes[code], nil
}

func (m *cardRepoMock) Create(ctx context.Context, card *models.StudentCard) error {
	card.ID = 500
	m.created = card
	return nil
}

func (m *cardRepoMock) Deactivate(ctx context.Context, id int64) error {
	m.deactivated = append(m.deactivated, id)
	return nil
}

func newStudentFixture() (*StudentService, *studentRepoMock, *cardRepoMock, *memoryCacheRepo) {
	birth := date(2010, 5, 15)
	male := models.GenderMale
	repo := &studentRepoMock{
		students: map[int64]*models.Student{1: {ID: 1, StudentCode: "HS0001", FullName: "Nguyen Van A", BirthDate: &birth, Gender: &male, IsUnderage: true}},
		codes:    map[string]bool{"HS0001": true},
	}
	cards := &cardRepoMock{
		cards: map[int64]*models.StudentCard{10: {ID: 10, StudentID: 1, CardCode: "3183268", IsActive: true}},
		codes: map[string]bool{"3183268": true},
	}
	cacheRepo := &memoryCacheRepo{}
	svc := NewStudentService(repo, cards, NewCacheService(cacheRepo, nil, time.Minute, nil, true), nil, nil)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }
	return svc, repo, cards, cacheRepo
}

func TestStudentCreateSnapshotsUnderage(t *testing.T) {
	svc, repo, _, cacheRepo := newStudentFixture()
	student, err := svc.Create(context.Background(), dto.CreateStudentRequest{
		StudentCode: " HS0100 ",
		FullName:    "Pham Thi D",
		BirthDate:   "2010-06-02",
		Gender:      "Nữ",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(77), student.ID)
	assert.Equal(t, "HS0100", repo.created.StudentCode)
	assert.True(t, repo.created.IsUnderage)
	require.NotNil(t, repo.created.Gender)
	assert.Equal(t, models.GenderFemale, *repo.created.Gender)
	require.NotNil(t, repo.created.EnrolledAt)
	assert.Equal(t, "2025-06-01", repo.created.EnrolledAt.Format("2006-01-02"))
	assert.ElementsMatch(t, []string{dashboardCachePattern, statisticsCachePattern}, cacheRepo.deleted)

	adult, err := svc.Create(context.Background(), dto.CreateStudentRequest{StudentCode: "HS0101", FullName: "Adult", BirthDate: "2009-06-01", EnrolledAt: "2024-09-05"})
	require.NoError(t, err)
	assert.False(t, adult.IsUnderage)
	assert.Nil(t, adult.Gender)
	assert.Equal(t, "2024-09-05", adult.EnrolledAt.Format("2006-01-02"))
}

func TestStudentCreateRejections(t *testing.T) {
	svc, _, _, _ := newStudentFixture()
	cases := map[string]dto.CreateStudentRequest{
		"student_code": {StudentCode: "HS0001", FullName: "Dup", BirthDate: "2010-01-01"},
		"birth_date":   {StudentCode: "HS0200", FullName: "Future", BirthDate: "2025-06-01"},
		"gender":       {StudentCode: "HS0201", FullName: "Odd", BirthDate: "2010-01-01", Gender: "robot"},
	}
	for field, req := range cases {
		_, err := svc.Create(context.Background(), req)
		require.Error(t, err, field)
		appErr := appErrors.FromError(err)
		assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status, field)
		assert.Contains(t, appErr.Fields, field)
	}
}

func TestStudentUpdateKeepsSnapshot(t *testing.T) {
	svc, repo, _, _ := newStudentFixture()
	name := "Nguyen Van A2"
	birth := "2000-01-01"
	group := "B"
	student, err := svc.Update(context.Background(), 1, dto.UpdateStudentRequest{FullName: &name, BirthDate: &birth, ScenarioGroup: &group})
	require.NoError(t, err)
	assert.Equal(t, name, student.FullName)
	assert.True(t, repo.updated.IsUnderage)
	assert.Equal(t, models.ScenarioGroupB, repo.updated.ScenarioGroup)
	assert.Equal(t, "HS0001", repo.updated.StudentCode)

	_, err = svc.Update(context.Background(), 404, dto.UpdateStudentRequest{FullName: &name})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestStudentGetIncludesCardsAndAge(t *testing.T) {
	svc, _, _, _ := newStudentFixture()
	detail, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, detail.Age)
	assert.Equal(t, 15, *detail.Age)
	require.Len(t, detail.Cards, 1)
	assert.Equal(t, "3183268", detail.Cards[0].CardCode)
}

func TestStudentListMapsGenderLabel(t *testing.T) {
	svc, repo, _, _ := newStudentFixture()
	female := models.GenderFemale
	repo.list = []models.StudentSummary{{Student: models.Student{ID: 5, FullName: "B", Gender: &female}, ViolationCount: 3}}

	items, page, err := svc.List(context.Background(), dto.StudentListQuery{Search: " b ", ScenarioGroup: "A"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Nữ", *items[0].Gender)
	assert.Equal(t, 3, items[0].ViolationCount)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, "b", repo.filter.Search)
}

func TestStudentCards(t *testing.T) {
	svc, _, cards, _ := newStudentFixture()

	card, err := svc.IssueCard(context.Background(), 1, dto.IssueCardRequest{CardCode: "QR-1", CardType: "QR", ExpiresAt: "2026-06-01"})
	require.NoError(t, err)
	assert.Equal(t, int64(500), card.ID)
	assert.True(t, card.IsActive)
	assert.Equal(t, models.CardTypeQR, cards.created.CardType)
	require.NotNil(t, card.ExpiresAt)

	_, err = svc.IssueCard(context.Background(), 1, dto.IssueCardRequest{CardCode: "3183268"})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Fields, "card_code")

	_, err = svc.IssueCard(context.Background(), 999, dto.IssueCardRequest{CardCode: "NEW"})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)

	require.NoError(t, svc.DeactivateCard(context.Background(), 10))
	assert.Equal(t, []int64{10}, cards.deactivated)

	err = svc.DeactivateCard(context.Background(), 11)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)

	list, err := svc.ListCards(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
