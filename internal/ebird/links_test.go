package ebird

import "testing"

func TestSpeciesURL(t *testing.T) {
	got := SpeciesURL("grecor")
	want := "https://ebird.org/species/grecor"
	if got != want {
		t.Errorf("SpeciesURL = %q, want %q", got, want)
	}
}

func TestMediaCatalogURL(t *testing.T) {
	got := MediaCatalogURL("grecor")
	want := "https://media.ebird.org/catalog?sort=rating_rank_desc&taxonCode=grecor"
	if got != want {
		t.Errorf("MediaCatalogURL = %q, want %q", got, want)
	}
}
