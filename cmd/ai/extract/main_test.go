package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"skillgap-ai/internal/domain/entity"
)

func ptr(s string) *string { return &s }

func TestUserSkills(t *testing.T) {
	res := entity.ExtractionResult{Skills: []entity.ValidatedSkill{
		{SkillID: ptr("go"), Level: 2},
		{SkillID: nil, RawName: "Fortran", Level: 5},
		{SkillID: ptr("sql"), Level: 3},
		{SkillID: ptr("go"), Level: 4},
	}}

	got := userSkills(res)
	want := []entity.UserSkill{
		{SkillID: "go", Level: 4},
		{SkillID: "sql", Level: 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("userSkills() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadText_JoinsArgs(t *testing.T) {
	got, err := readText(nil, []string{"Go", "and", "SQL"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "Go and SQL" {
		t.Errorf("readText() = %q", got)
	}
}

func TestReadText_Stdin(t *testing.T) {
	got, err := readText(strings.NewReader("Kubernetes operator"), []string{"-"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "Kubernetes operator" {
		t.Errorf("readText() = %q", got)
	}
}

func TestRootCommand_Validation(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no text", []string{}, "requires at least 1 arg"},
		{"bad output", []string{"--output", "yaml", "Go"}, `unknown output format "yaml"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCommand()
			cmd.SetArgs(tt.args)
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			err := cmd.Execute()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Execute() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	out := ExtractOutput{Extraction: entity.ResultEnvelope[entity.ExtractionResult]{Success: true}}
	if err := outputJSON(&buf, out); err != nil {
		t.Fatal(err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if _, ok := decoded["extraction"]; !ok {
		t.Errorf("missing extraction key in %s", buf.String())
	}
	if _, ok := decoded["analysis"]; ok {
		t.Errorf("analysis should be omitted without --role")
	}
}
