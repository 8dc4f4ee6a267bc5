package persona_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Danish137/Digital-twin/internal/model/persona"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadStore(t *testing.T) {
	dir := t.TempDir()
	personaPath := writeFile(t, dir, "persona.json", `{
		"name": "Danish Akhtar",
		"role": "software engineer",
		"tone": "warm",
		"speaking_style": "short sentences",
		"context": "voice interview",
		"instructions": ["stay in character"]
	}`)
	factsPath := writeFile(t, dir, "facts.json", `{
		"location": "Bangalore",
		"hobbies": "cricket"
	}`)

	store, err := persona.LoadStore(personaPath, factsPath)
	if err != nil {
		t.Fatalf("LoadStore err: %v", err)
	}

	definition := store.Definition()
	if definition.Name != "Danish Akhtar" {
		t.Fatalf("unexpected name: %q", definition.Name)
	}
	if definition.SpeakingStyle != "short sentences" {
		t.Fatalf("unexpected speaking style: %q", definition.SpeakingStyle)
	}
	if len(definition.Instructions) != 1 {
		t.Fatalf("unexpected instructions: %v", definition.Instructions)
	}

	facts := store.Facts()
	if facts["location"] != "Bangalore" {
		t.Fatalf("unexpected facts: %v", facts)
	}
}

func TestLoadStoreMissingName(t *testing.T) {
	dir := t.TempDir()
	personaPath := writeFile(t, dir, "persona.json", `{"role": "engineer"}`)
	factsPath := writeFile(t, dir, "facts.json", `{}`)

	if _, err := persona.LoadStore(personaPath, factsPath); err == nil {
		t.Fatal("expected an error for a persona with no name")
	}
}

func TestLoadStoreMalformedPersona(t *testing.T) {
	dir := t.TempDir()
	personaPath := writeFile(t, dir, "persona.json", `{not json`)
	factsPath := writeFile(t, dir, "facts.json", `{}`)

	if _, err := persona.LoadStore(personaPath, factsPath); err == nil {
		t.Fatal("expected an error for malformed persona JSON")
	}
}

func TestLoadStoreMissingFactsFile(t *testing.T) {
	dir := t.TempDir()
	personaPath := writeFile(t, dir, "persona.json", `{"name": "Danish Akhtar"}`)

	if _, err := persona.LoadStore(personaPath, filepath.Join(dir, "absent.json")); err == nil {
		t.Fatal("expected an error for a missing facts file")
	}
}

func TestFactsReturnsCopy(t *testing.T) {
	store := persona.NewMemoryStore(
		persona.Definition{Name: "Danish Akhtar"},
		persona.Facts{"location": "Bangalore"},
	)

	facts := store.Facts()
	facts["location"] = "mutated"

	if store.Facts()["location"] != "Bangalore" {
		t.Fatal("Facts must return an independent copy")
	}
}
