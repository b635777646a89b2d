package patients

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/herbal-board/internal/schedule"
)

const legacyDump = `[
  {
    "id": 1718000000000,
    "name": "홍길동",
    "chartNumber": "1024",
    "doctor": "3진료실",
    "treatmentStartDate": "2024-06-03",
    "treatmentPeriod": "6개월",
    "prescriptionPeriod": 2,
    "visitPeriod": "3개월 2주에 1회",
    "visitInterval": "2주에 1회",
    "herbalType": "환약",
    "weeklyVisits": [true, false, null],
    "skipWeeks": [2, 40],
    "missedReasons": {"1": "출장", "x": "bad"},
    "herbal": [{"month": 1, "date": "2024-06-03", "seoljin": true, "omnifit": true}],
    "status": "completed",
    "graduationDate": "2024-09-01",
    "review": "written",
    "createdAt": "2024-06-03T01:02:03.000Z"
  },
  {
    "name": "구버전",
    "weeklyVisits": [true, false, false, false, false, false, false, false, false, false, false, false,
                     false, false, false, false, false, false, false, false, false, false, false, false]
  }
]`

func TestDecodeLegacy(t *testing.T) {
	records, err := DecodeLegacy(strings.NewReader(legacyDump))
	require.NoError(t, err)
	require.Len(t, records, 2)

	p, err := records[0].Patient(DefaultOwnerKey, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, "1718000000000", p.ID)
	assert.Equal(t, "1024", p.ChartNumber)
	assert.Equal(t, 6, p.TreatmentPeriod)
	assert.Equal(t, 2, p.PrescriptionPeriod)
	assert.Equal(t, 3, p.VisitPeriod)
	assert.Equal(t, schedule.Cadence{Weeks: 2, Visits: 1}, p.VisitInterval)
	assert.Equal(t, HerbalPill, p.HerbalType)
	assert.Equal(t, StatusGraduated, p.Status)
	assert.Equal(t, ReviewWritten, p.Review)
	assert.Equal(t, []int{2}, p.SkipWeeks.Sorted())
	assert.Equal(t, schedule.Reasons{1: "출장"}, p.MissedReasons)
	assert.True(t, p.Herbal[0].TongueExam)
	assert.True(t, p.Herbal[0].DeviceFit)
	assert.Len(t, p.Herbal, HerbalMonths)
	assert.Equal(t, 2024, p.CreatedAt.Year())

	require.Len(t, p.WeeklyVisits, schedule.SlotCount)
	assert.Equal(t, schedule.MarkVisited, p.WeeklyVisits[0])
	assert.Equal(t, schedule.MarkUnset, p.WeeklyVisits[1], "short arrays are two-state")
}

func TestLegacyDefaults(t *testing.T) {
	records, err := DecodeLegacy(strings.NewReader(legacyDump))
	require.NoError(t, err)

	p, err := records[1].Patient(DefaultOwnerKey, fixedNow)
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, schedule.DefaultPeriodMonths, p.TreatmentPeriod)
	assert.Equal(t, schedule.DefaultPeriodMonths, p.VisitPeriod)
	assert.Equal(t, schedule.DefaultCadence, p.VisitInterval)
	assert.Equal(t, HerbalDecoction, p.HerbalType, "records without a form predate the none option")
	assert.Equal(t, StatusActive, p.Status)
	assert.Equal(t, fixedNow, p.CreatedAt)
	for i, m := range p.WeeklyVisits {
		if i == 0 {
			assert.Equal(t, schedule.MarkVisited, m)
			continue
		}
		assert.Equal(t, schedule.MarkUnset, m, "week %d", i)
	}
}

func TestLegacyRequiresName(t *testing.T) {
	_, err := LegacyRecord{Name: " "}.Patient(DefaultOwnerKey, fixedNow)
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = DecodeLegacy(strings.NewReader(`{"not":"an array"}`))
	assert.Error(t, err)
}

func TestLegacyHasHerbalFalse(t *testing.T) {
	no := false
	p, err := LegacyRecord{Name: "a", HasHerbal: &no}.Patient(DefaultOwnerKey, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, HerbalNone, p.HerbalType)
}
