package dashboard

import (
	"testing"
	"time"

	"github.com/smileynet/berth/internal/docker"
	"github.com/smileynet/berth/internal/inventory"
	"github.com/smileynet/berth/internal/pending"
	"github.com/smileynet/berth/internal/target"
)

func TestRenderDetail_Container(t *testing.T) {
	bs := loadedBrowse()
	bs.cursor = 1 // shop-api-1

	got := stripANSI(renderDetail(bs, target.Local()))
	for _, want := range []string{
		"shop-api-1",
		"aaa111aaa111",
		"Image:",
		"shop/api:1.2",
		"State:",
		"running",
		"Up 2 hours",
		"Links",
		"http://localhost:8080",
		"Usage",
		"1.2%",
		"100MiB / 1GiB (9.8%)",
		"Labels",
		"com.docker.compose.project=shop",
	} {
		if !containsPlainText(got, want) {
			t.Errorf("detail missing %q:\n%s", want, got)
		}
	}
}

func TestRenderDetail_RemoteHostLinks(t *testing.T) {
	bs := loadedBrowse()
	bs.cursor = 1

	got := renderDetail(bs, target.Target{Name: "nuc", Host: "nuc.lan", User: "admin"})
	if !containsPlainText(got, "http://nuc.lan:8080") {
		t.Errorf("detail should link through the remote host:\n%s", stripANSI(got))
	}
}

func TestRenderDetail_PendingAnnotatesState(t *testing.T) {
	bs := loadedBrowse()
	bs.cursor = 1
	bs = bs.applyPending(map[string]pending.Action{
		"aaa111aaa111": {Verb: pending.Stopping, IssuedAt: time.Now()},
	})

	got := stripANSI(renderDetail(bs, target.Local()))
	if !containsPlainText(got, "running (stopping…)") {
		t.Errorf("detail should annotate the in-flight action:\n%s", got)
	}
}

func TestRenderDetail_GroupHeader(t *testing.T) {
	bs := loadedBrowse()
	bs.cursor = 0 // shop header

	got := stripANSI(renderDetail(bs, target.Local()))
	for _, want := range []string{"shop", "2 containers, 1 running", "shop-api-1", "shop-db-1"} {
		if !containsPlainText(got, want) {
			t.Errorf("group detail missing %q:\n%s", want, got)
		}
	}
}

func TestRenderDetail_HostSummaryWhenEmpty(t *testing.T) {
	bs := newBrowseState()
	bs = bs.applySnapshot(inventory.Result{Snapshot: docker.Snapshot{
		Host: composeSnapshot().Host,
	}}, nil, nil)

	got := stripANSI(renderDetail(bs, target.Local()))
	for _, want := range []string{"boxy", "Docker:", "28.0.4", "Debian GNU/Linux 13", "CPUs:", "16.0GiB", "Images:"} {
		if !containsPlainText(got, want) {
			t.Errorf("host detail missing %q:\n%s", want, got)
		}
	}
}

func TestRenderDetail_NoHostInfo(t *testing.T) {
	bs := newBrowseState()
	bs = bs.applySnapshot(inventory.Result{}, nil, nil)

	if got := renderDetail(bs, target.Local()); got != "No containers on this host." {
		t.Errorf("detail = %q, want the empty-host note", got)
	}
}

func TestRenderDetail_LoadingIsBlank(t *testing.T) {
	if got := renderDetail(newBrowseState(), target.Local()); got != "" {
		t.Errorf("detail while loading = %q, want empty", got)
	}
}
