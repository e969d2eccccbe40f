package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/neurodash/internal/bundle"
	"github.com/nvandessel/neurodash/internal/fixtures"
	"github.com/nvandessel/neurodash/internal/models"
)

func TestBundleCmd_CreateVerifyExtract(t *testing.T) {
	dir := isolateHome(t)
	data := filepath.Join(dir, "d")
	bundles := filepath.Join(dir, "bundles")
	generateSmall(t, data)

	out, err := runCmd(t, "bundle", "create", "--dir", data, "--bundle-dir", bundles, "--json")
	if err != nil {
		t.Fatalf("bundle create failed: %v", err)
	}
	created := decodeJSON[struct {
		Path   string        `json:"path"`
		Counts models.Counts `json:"counts"`
	}](t, out)
	if filepath.Dir(created.Path) != bundles || !strings.HasSuffix(created.Path, bundle.Extension) {
		t.Errorf("path = %s", created.Path)
	}
	if created.Counts.Sessions != 12 {
		t.Errorf("sessions = %d, want 12", created.Counts.Sessions)
	}

	out, err = runCmd(t, "bundle", "verify", created.Path)
	if err != nil {
		t.Fatalf("bundle verify failed: %v", err)
	}
	if !strings.Contains(out, "checksum OK") {
		t.Errorf("verify output = %q", out)
	}

	out, err = runCmd(t, "bundle", "extract", created.Path, "--dir", "restored")
	if err != nil {
		t.Fatalf("bundle extract failed: %v", err)
	}
	if !strings.Contains(out, "Extracted 7 files (12 sessions)") {
		t.Errorf("extract output = %q", out)
	}
	if !fixtures.Exists(filepath.Join(dir, "restored")) {
		t.Error("extracted fixtures missing")
	}
}

func TestBundleCmd_DefaultDir(t *testing.T) {
	dir := isolateHome(t)
	data := filepath.Join(dir, "d")
	generateSmall(t, data)

	if _, err := runCmd(t, "bundle", "create", "--dir", data); err != nil {
		t.Fatalf("bundle create failed: %v", err)
	}
	list, err := bundle.List(filepath.Join(dir, "home", ".neurodash", "bundles"))
	if err != nil || len(list) != 1 {
		t.Errorf("default dir bundles = %v, %v; want 1", list, err)
	}
}

func TestBundleCmd_RejectsOutsidePaths(t *testing.T) {
	dir := isolateHome(t)
	data := filepath.Join(dir, "d")
	generateSmall(t, data)
	outside := t.TempDir()

	_, err := runCmd(t, "bundle", "create", "--dir", data, "--output", filepath.Join(outside, "x"+bundle.Extension))
	if err == nil || !strings.Contains(err.Error(), "bundle path rejected") {
		t.Errorf("create err = %v, want rejection", err)
	}

	bundlePath := filepath.Join(dir, "ok"+bundle.Extension)
	if _, err := runCmd(t, "bundle", "create", "--dir", data, "--output", bundlePath); err != nil {
		t.Fatalf("bundle create in work dir failed: %v", err)
	}
	_, err = runCmd(t, "bundle", "extract", bundlePath, "--dir", outside)
	if err == nil || !strings.Contains(err.Error(), "outside allowed directories") {
		t.Errorf("extract err = %v, want rejection", err)
	}
}

func TestBundleCmd_VerifyCorrupt(t *testing.T) {
	dir := isolateHome(t)
	data := filepath.Join(dir, "d")
	generateSmall(t, data)
	path := filepath.Join(dir, "b"+bundle.Extension)
	if _, err := runCmd(t, "bundle", "create", "--dir", data, "--output", path); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	raw[len(raw)-5] ^= 0xff
	if err := os.WriteFile(path, raw, 0600); err != nil {
		t.Fatal(err)
	}

	out, err := runCmd(t, "bundle", "verify", path, "--json")
	if err == nil {
		t.Fatal("verify succeeded on corrupt bundle")
	}
	got := decodeJSON[map[string]any](t, out)
	if got["valid"] != false || got["error"] == nil {
		t.Errorf("json = %v", got)
	}
}

func TestBundleCmd_ListAndPrune(t *testing.T) {
	dir := isolateHome(t)
	data := filepath.Join(dir, "d")
	bundles := filepath.Join(dir, "bundles")
	generateSmall(t, data)

	out, err := runCmd(t, "bundle", "list", "--bundle-dir", bundles)
	if err != nil {
		t.Fatalf("bundle list failed: %v", err)
	}
	if !strings.HasPrefix(out, "No bundles found") {
		t.Errorf("empty list output = %q", out)
	}

	// Distinct names need distinct seconds, so write the files directly.
	for i, name := range []string{"20240101-000000", "20240102-000000", "20240103-000000"} {
		src := filepath.Join(dir, "src"+string(rune('0'+i))+bundle.Extension)
		if _, err := runCmd(t, "bundle", "create", "--dir", data, "--output", src, "--keep", "0"); err != nil {
			t.Fatal(err)
		}
		if err := os.MkdirAll(bundles, 0700); err != nil {
			t.Fatal(err)
		}
		if err := os.Rename(src, filepath.Join(bundles, "neurodash-bundle-"+name+bundle.Extension)); err != nil {
			t.Fatal(err)
		}
	}

	out, err = runCmd(t, "bundle", "list", "--bundle-dir", bundles, "--json")
	if err != nil {
		t.Fatalf("bundle list failed: %v", err)
	}
	if got := decodeJSON[struct {
		TotalCount int `json:"total_count"`
	}](t, out); got.TotalCount != 3 {
		t.Errorf("total_count = %d, want 3", got.TotalCount)
	}

	if _, err := runCmd(t, "bundle", "prune", "--bundle-dir", bundles); err == nil {
		t.Error("prune without a policy should fail")
	}

	out, err = runCmd(t, "bundle", "prune", "--bundle-dir", bundles, "--keep", "1", "--json")
	if err != nil {
		t.Fatalf("bundle prune failed: %v", err)
	}
	if got := decodeJSON[struct {
		Deleted []string `json:"deleted"`
	}](t, out); len(got.Deleted) != 2 {
		t.Errorf("deleted = %v, want 2", got.Deleted)
	}
	remaining, _ := bundle.List(bundles)
	if len(remaining) != 1 || !strings.Contains(remaining[0].Path, "20240103") {
		t.Errorf("remaining = %v, want the newest", remaining)
	}
}
