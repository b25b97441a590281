package domain

import (
	"strings"
	"testing"
)

func TestClassifyLevelThresholds(t *testing.T) {
	cases := []struct {
		name    string
		current CandidateLevel
		length  int
		want    CandidateLevel
	}{
		{"long reply classifies senior", LevelMid, 201, LevelSenior},
		{"boundary 200 leaves unchanged", LevelMid, 200, LevelMid},
		{"short reply classifies junior", LevelMid, 49, LevelJunior},
		{"boundary 50 leaves unchanged", LevelMid, 50, LevelMid},
		{"mid reply keeps senior", LevelSenior, 120, LevelSenior},
		{"short reply overwrites senior", LevelSenior, 10, LevelJunior},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ClassifyLevel(c.current, strings.Repeat("a", c.length))
			if got != c.want {
				t.Errorf("ClassifyLevel(%s, len %d) = %s, want %s", c.current, c.length, got, c.want)
			}
		})
	}
}

func TestTurnHelpers(t *testing.T) {
	u := UserTurn("hello")
	if u.Role != RoleUser || u.Text() != "hello" {
		t.Errorf("Unexpected user turn: %+v", u)
	}
	m := ModelTurn("hi there")
	if m.Role != RoleModel || m.Text() != "hi there" {
		t.Errorf("Unexpected model turn: %+v", m)
	}

	multi := Turn{Role: RoleModel, Parts: []Part{{Text: "a"}, {Text: "b"}}}
	if multi.Text() != "ab" {
		t.Errorf("Expected concatenated parts, got %q", multi.Text())
	}
}
