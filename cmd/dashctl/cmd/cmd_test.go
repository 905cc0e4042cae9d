package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	outputFormat = "yaml"
	renderWithMetadata = false
	propertiesSelected, propertiesHint = "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

const wrapperDoc = `{"output":{"answer":"Up"},"json":{"version":"1","cards":[
	{"id":"k1","type":"metric","title":"Ads • Spend"},
	{"id":"c1","type":"chart","title":"Ads • Trend"}
]}}`

func TestRender_JSONFromStdin(t *testing.T) {
	out, err := run(t, wrapperDoc, "render", "-", "-o", "json", "--metadata")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got struct {
		Model struct {
			KPICards []struct{ ID string } `json:"kpiCards"`
			HeroCard struct{ ID string }   `json:"heroCard"`
		} `json:"model"`
		Metadata struct {
			Answer string `json:"answer"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(got.Model.KPICards) != 1 || got.Model.KPICards[0].ID != "k1" || got.Model.HeroCard.ID != "c1" {
		t.Errorf("unexpected model %+v", got.Model)
	}
	if got.Metadata.Answer != "Up" {
		t.Errorf("expected metadata answer, got %q", got.Metadata.Answer)
	}
}

func TestRender_YAMLFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dash.json")
	if err := os.WriteFile(path, []byte(wrapperDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "", "render", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got map[string]any
	if err := yaml.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if _, ok := got["model"]; !ok {
		t.Errorf("expected model key, got %v", got)
	}
	if _, ok := got["metadata"]; ok {
		t.Error("metadata should be omitted without --metadata")
	}
}

func TestRender_Errors(t *testing.T) {
	cases := map[string]string{
		"not json":     "{nope",
		"no dashboard": "[]",
		"schema":       `{"json":{"version":"1"}}`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := run(t, in, "render", "-"); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestProperties_NormalizeAndSelect(t *testing.T) {
	in := `{"accounts":[{"accountId":"a1","properties":[{"propertyId":"properties/5","displayName":"Five"},{"name":"properties/6","displayName":"Six"}]}]}`

	out, err := run(t, in, "properties", "-", "-o", "json", "--hint", "6")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got propertiesOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(got.Records) != 2 || got.Records[1].DisplayName != "Six" {
		t.Errorf("unexpected records %+v", got.Records)
	}
	if got.Selected != "properties/6" || got.NumericID != "6" {
		t.Errorf("unexpected selection %q %q", got.Selected, got.NumericID)
	}
}

func TestProperties_Empty(t *testing.T) {
	if _, err := run(t, `{"unexpected":true}`, "properties", "-"); err == nil {
		t.Error("expected an error for a list without properties")
	}
}

func TestSecret_UnknownName(t *testing.T) {
	if _, err := run(t, "", "secret", "set", "db-password", "x", "--project", "p"); err == nil {
		t.Error("expected an error for an unknown secret name")
	}
}

func TestSealKey_RequiresKeyName(t *testing.T) {
	t.Setenv("KMSKEYNAME", "")
	sealKeyName = ""
	if _, err := run(t, "", "seal-key", "s3cret"); err == nil {
		t.Error("expected an error without a KMS key name")
	}
}
