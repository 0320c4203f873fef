package views

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoadTemplates_success(t *testing.T) {
	if err := LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates() = %v; want nil", err)
	}
	if homeTmpl == nil {
		t.Fatal("LoadTemplates() left homeTmpl nil")
	}
}

func TestLoadTemplates_failure_sub(t *testing.T) {
	// fs.Sub rejects an invalid directory name.
	if err := loadTemplatesFromFS(fstest.MapFS{}, "../templates"); err == nil {
		t.Fatal("loadTemplatesFromFS with invalid dir = nil; want error")
	}
}

func TestLoadTemplates_failure_noMatch(t *testing.T) {
	if err := loadTemplatesFromFS(fstest.MapFS{}, "templates"); err == nil {
		t.Fatal("loadTemplatesFromFS(empty) = nil; want error")
	}
}

func TestLoadTemplates_failure_parse(t *testing.T) {
	badFS := fstest.MapFS{
		"templates/home.txt": {Data: []byte("{{ .")},
	}
	if err := loadTemplatesFromFS(badFS, "templates"); err == nil {
		t.Fatal("loadTemplatesFromFS(badFS) = nil; want error")
	}
}

func TestRenderHome_notLoaded(t *testing.T) {
	prev := homeTmpl
	homeTmpl = nil
	t.Cleanup(func() { homeTmpl = prev })

	var buf bytes.Buffer
	err := RenderHome(&buf, &HomeData{})
	if err == nil {
		t.Fatal("RenderHome() = nil; want error when templates not loaded")
	}
	if !strings.Contains(err.Error(), "not loaded") {
		t.Errorf("err = %q; want message containing \"not loaded\"", err.Error())
	}
}

func TestRenderHome_listsRoutes(t *testing.T) {
	if err := LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates: %v", err)
	}

	var buf bytes.Buffer
	err := RenderHome(&buf, &HomeData{
		Title: "Hawaii Weather",
		Routes: []Route{
			{Path: "/api/v1.0/precipitation"},
			{Path: "/api/v1.0/<start>", Hint: "start date as YYYY-MM-DD"},
		},
	})
	if err != nil {
		t.Fatalf("RenderHome: %v", err)
	}

	want := "Welcome to the Hawaii Weather Home page!\n" +
		"Available Routes:\n" +
		"/api/v1.0/precipitation\n" +
		"/api/v1.0/<start>    start date as YYYY-MM-DD\n"
	if got := buf.String(); got != want {
		t.Errorf("RenderHome output:\n%q\nwant:\n%q", got, want)
	}
}
