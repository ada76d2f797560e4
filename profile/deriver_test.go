package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/novelrec/core"
)

func fixedDeriver(year int) *Deriver {
	return &Deriver{Now: func() time.Time {
		return time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC)
	}}
}

func TestDeriver_Derive(t *testing.T) {
	tests := []struct {
		name string
		demo core.Demographics
		want []string
	}{
		{
			name: "male teenage student rarely reading",
			demo: core.Demographics{
				Gender:      core.GenderMale,
				BirthYear:   2010,
				Occupation:  core.OccupationStudent,
				ReadingTime: core.ReadingRarely,
			},
			want: []string{"校园", "修真", "异能", "搞笑"},
		},
		{
			name: "female office worker in her twenties",
			demo: core.Demographics{
				Gender:      core.GenderFemale,
				BirthYear:   2000,
				Occupation:  core.OccupationOfficeWorker,
				ReadingTime: core.Reading1To3Hours,
			},
			// 都市:4 系统:2 职场:2，其余按首次出现
			want: []string{"都市", "系统", "职场", "言情"},
		},
		{
			name: "retired reader over forty",
			demo: core.Demographics{
				Gender:      core.GenderUndisclosed,
				BirthYear:   1950,
				Occupation:  core.OccupationRetired,
				ReadingTime: core.Reading4To6Hours,
			},
			// 历史:3 现实:2 文学:2 职场:1
			want: []string{"历史", "现实", "文学", "职场"},
		},
		{
			name: "unknown enums only contribute the age bucket",
			demo: core.Demographics{
				Gender:      "other",
				BirthYear:   1990,
				Occupation:  "astronaut",
				ReadingTime: "forever",
			},
			want: []string{"历史", "权谋", "战争", "悬疑"},
		},
	}

	d := fixedDeriver(2026)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := d.Derive(tt.demo)
			require.NotNil(t, p)
			assert.Equal(t, tt.want, p.PreferredTags)
			assert.LessOrEqual(t, len(p.PreferredTags), MaxTags)
		})
	}
}

func TestDeriver_Age(t *testing.T) {
	d := fixedDeriver(2026)

	tests := []struct {
		birthYear int
		want      int
	}{
		{birthYear: 2010, want: 16},
		{birthYear: 2006, want: 20},
		{birthYear: 1800, want: 2026 - MinBirthYear},
		{birthYear: 0, want: 2026 - MinBirthYear},
		{birthYear: 2100, want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, d.Age(tt.birthYear), "birth year %d", tt.birthYear)
	}
}

func TestReadingTimeTables(t *testing.T) {
	assert.Equal(t, readingTimeTags[core.Reading7To10Hours], readingTimeTags[core.ReadingOver10Hours])
	assert.Empty(t, genderTags[core.GenderUndisclosed])
	assert.Empty(t, occupationTags[core.OccupationUndisclosed])
}

func TestAgeBuckets(t *testing.T) {
	assert.Equal(t, ageBuckets[0].tags, ageTags(19))
	assert.Equal(t, ageBuckets[1].tags, ageTags(20))
	assert.Equal(t, ageBuckets[1].tags, ageTags(29))
	assert.Equal(t, ageBuckets[2].tags, ageTags(30))
	assert.Equal(t, ageBuckets[2].tags, ageTags(39))
	assert.Equal(t, ageBuckets[3].tags, ageTags(40))
	assert.Equal(t, ageBuckets[3].tags, ageTags(126))
}

func TestVote(t *testing.T) {
	assert.Empty(t, Vote())
	assert.Equal(t, []string{"a", "b"}, Vote([]string{"a", "b"}))
	assert.Equal(t, []string{"c", "a", "b", "d"}, Vote(
		[]string{"a", "b", "c"},
		[]string{"c", "d", "e"},
	))
}

func TestDeriver_Apply(t *testing.T) {
	rctx := &core.RecommendContext{}
	p := fixedDeriver(2026).Apply(rctx, core.Demographics{
		Gender:      core.GenderMale,
		BirthYear:   2010,
		Occupation:  core.OccupationStudent,
		ReadingTime: core.ReadingRarely,
	})

	assert.Same(t, p, rctx.User)
	lbl, ok := rctx.GetLabel("preferred_tags")
	require.True(t, ok)
	assert.Equal(t, "校园|修真|异能|搞笑", lbl.Value)
	assert.Equal(t, "profile", lbl.Source)
}

func TestNormalizeTags(t *testing.T) {
	assert.Nil(t, NormalizeTags(nil))
	assert.Equal(t,
		[]string{"言情", core.Undisclosed, "校园"},
		NormalizeTags([]string{" 言情 ", "言情", "火星文", core.Undisclosed, "校园", ""}),
	)
	assert.Empty(t, NormalizeTags([]string{"火星文"}))
}
