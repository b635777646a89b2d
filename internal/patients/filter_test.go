package patients

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func boardFixture() []*Patient {
	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	return []*Patient{
		{ID: "a", Name: "김철수", Doctor: "1진료실", Status: StatusActive, TreatmentStartDate: "2026-03-01", CreatedAt: base},
		{ID: "b", Name: "이영희", Doctor: "2진료실", Status: StatusActive, FirstVisitDate: "2026-05-01", Symptoms: "두통", CreatedAt: base},
		{ID: "c", Name: "박민수", Doctor: "1진료실", Status: StatusGraduated, Review: ReviewWritten, CreatedAt: base.AddDate(0, 8, 0)},
		{ID: "d", Name: "최지우", ChartNumber: "A-17", Status: StatusDropout, Review: ReviewVideoPrivate, TreatmentStartDate: "2026-02-01", CreatedAt: base},
		{ID: "e", Name: "정하늘", Status: StatusOther, CreatedAt: base},
	}
}

func ids(list []*Patient) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, p.ID)
	}
	return out
}

func TestSelectSortsNewestFirst(t *testing.T) {
	got := Select(boardFixture(), Filter{})
	assert.Equal(t, []string{"c", "b", "a", "d", "e"}, ids(got))
}

func TestSelectFilters(t *testing.T) {
	list := boardFixture()
	assert.Equal(t, []string{"b", "a"}, ids(Select(list, Filter{Status: StatusActive})))
	assert.Equal(t, []string{"c", "a"}, ids(Select(list, Filter{Doctor: "1진료실"})))
	assert.Equal(t, []string{"a"}, ids(Select(list, Filter{Status: StatusActive, Doctor: "1진료실"})))
	assert.Equal(t, []string{"b"}, ids(Select(list, Filter{Query: "두통"})))
	assert.Equal(t, []string{"d"}, ids(Select(list, Filter{Query: "a-17"})))
	assert.Empty(t, Select(list, Filter{Query: "없음"}))
}

func TestCounts(t *testing.T) {
	list := boardFixture()
	assert.Equal(t, TabCounts{Active: 2, Graduated: 1, Dropout: 1, Other: 1, Total: 5}, CountTabs(list))
	assert.Equal(t, ReviewCounts{Written: 1, VideoPrivate: 1, None: 3}, CountReviews(list))
}
