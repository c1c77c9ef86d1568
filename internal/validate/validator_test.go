package validate

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"district-concierge/internal/assets"
	"district-concierge/internal/common/logger"
	"district-concierge/internal/models"
	"district-concierge/internal/render"
)

type fakeStore struct {
	records []models.CatalogRecord
	err     error
}

func (f *fakeStore) GetByCategory(ctx context.Context, category, subcategory string) ([]models.CatalogRecord, error) {
	return f.records, f.err
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (*models.CatalogRecord, error) {
	for i := range f.records {
		if f.records[i].ID == id {
			return &f.records[i], nil
		}
	}
	return nil, f.err
}

func (f *fakeStore) GetAllActive(ctx context.Context) ([]models.CatalogRecord, error) {
	return f.records, f.err
}

type captureSink struct {
	reports []models.ViolationReport
}

func (c *captureSink) Record(report models.ViolationReport) {
	c.reports = append(c.reports, report)
}

func (c *captureSink) Close() {}

func guardrailRegistry() *assets.Registry {
	return &assets.Registry{
		Blacklist:    []string{"Golden Dragon Emporium", "42 Phantom Lane"},
		NameSuffixes: []string{"restaurant", "clinic", "pharmacy", "house"},
	}
}

func catalogFixture() *fakeStore {
	return &fakeStore{records: []models.CatalogRecord{
		{ID: "biz-greenleaf", Name: "Greenleaf Pharmacy", Category: "medical", EvidenceLevel: models.EvidenceVerified},
		{ID: "biz-sakura", Name: "Sakura House", Category: "food", EvidenceLevel: models.EvidenceVerified},
	}}
}

func newTestValidator(t *testing.T, store *fakeStore, sink *captureSink) *Validator {
	return New(store, guardrailRegistry(), nil, sink, logger.NewTestLogger(t))
}

func TestValidator_Passes(t *testing.T) {
	sink := &captureSink{}
	v := newTestValidator(t, catalogFixture(), sink)
	intent := models.Intent{RoutingClass: models.RouteCatalog, Tag: "medical"}

	text := "Greenleaf Pharmacy is at 12 Elm St, open 9-18."
	result, err := v.Check(context.Background(), intent, "s-1", text)

	require.NoError(t, err)
	assert.Equal(t, models.ValidationPassed, result.State)
	assert.True(t, result.Passed)
	assert.Equal(t, text, result.SanitizedText)
	assert.Empty(t, result.Violations)
	assert.Empty(t, sink.reports, "passed responses produce no audit record")
}

func TestValidator_SeesCatalogRemovalImmediately(t *testing.T) {
	// The existence check runs against the live store on every call, so a
	// record removed from the catalog stops resolving on the next check.
	sink := &captureSink{}
	store := catalogFixture()
	v := newTestValidator(t, store, sink)
	intent := models.Intent{RoutingClass: models.RouteCatalog, Tag: "medical"}
	text := "Greenleaf Pharmacy is at 12 Elm St."

	result, err := v.Check(context.Background(), intent, "s-10", text)
	require.NoError(t, err)
	assert.True(t, result.Passed)

	store.records = store.records[1:]

	result, err = v.Check(context.Background(), intent, "s-10", text)
	require.NoError(t, err)
	assert.Equal(t, models.ValidationRejected, result.State)
	assert.Contains(t, result.Violations, models.ViolationUnknownEntity)
	assert.Equal(t, render.FallbackSentence, result.SanitizedText)
}

func TestValidator_UnknownEntityRejected(t *testing.T) {
	// The XYZ-Pharmacy case: a name that resolves nowhere in the catalog
	// discards the whole response in favor of the canonical fallback.
	sink := &captureSink{}
	v := newTestValidator(t, catalogFixture(), sink)
	intent := models.Intent{RoutingClass: models.RouteCatalog, Tag: "medical"}

	result, err := v.Check(context.Background(), intent, "s-2", "Try XYZ-Pharmacy at 9 Oak Road, phone 555-0100.")

	require.NoError(t, err)
	assert.Equal(t, models.ValidationRejected, result.State)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Violations, models.ViolationUnknownEntity)
	assert.Equal(t, render.FallbackSentence, result.SanitizedText)
	assert.NotContains(t, result.SanitizedText, "Oak Road")
	assert.NotContains(t, result.SanitizedText, "555-0100")

	require.Len(t, sink.reports, 1)
	assert.Equal(t, "s-2", sink.reports[0].SessionID)
	assert.Equal(t, models.ValidationRejected, sink.reports[0].State)
}

func TestValidator_BlacklistRedactionPreservesValidCandidate(t *testing.T) {
	sink := &captureSink{}
	v := newTestValidator(t, catalogFixture(), sink)
	intent := models.Intent{RoutingClass: models.RouteCatalog, Tag: "medical"}

	text := "Greenleaf Pharmacy is open now. Golden Dragon Emporium also sells medicine."
	result, err := v.Check(context.Background(), intent, "s-3", text)

	require.NoError(t, err)
	assert.Equal(t, models.ValidationCorrected, result.State)
	assert.Contains(t, result.Violations, models.ViolationBlacklist)
	assert.Contains(t, result.SanitizedText, "Greenleaf Pharmacy", "the valid candidate stays intact")
	assert.NotContains(t, result.SanitizedText, "Golden Dragon Emporium")
	assert.Contains(t, result.SanitizedText, render.RedactionPlaceholder)
	assert.Contains(t, result.SanitizedText, render.SafeguardSentence)

	require.Len(t, sink.reports, 1)
	assert.Equal(t, text, sink.reports[0].OriginalText)
}

func TestValidator_ContradictionNeverPasses(t *testing.T) {
	sink := &captureSink{}
	v := newTestValidator(t, catalogFixture(), sink)
	intent := models.Intent{RoutingClass: models.RouteCatalog, Tag: "medical"}

	tests := []string{
		"No match found, but Golden Dragon Emporium might help.",
		"No match found. Visit Greenleaf Pharmacy instead.",
	}
	for _, text := range tests {
		result, err := v.Check(context.Background(), intent, "s-4", text)
		require.NoError(t, err)
		assert.False(t, result.Passed, "contradictory text must never pass: %q", text)
	}
}

func TestValidator_CrossCategoryLeakageRejected(t *testing.T) {
	store := &fakeStore{records: []models.CatalogRecord{
		{ID: "biz-word", Name: "Wordbridge Academy", Category: "english-learning", EvidenceLevel: models.EvidenceVerified},
	}}
	reg := guardrailRegistry()
	reg.NameSuffixes = append(reg.NameSuffixes, "academy")
	v := New(store, reg, nil, &captureSink{}, logger.NewTestLogger(t))

	intent := models.Intent{RoutingClass: models.RouteCatalog, Tag: "medical", Subcategory: "pharmacy"}
	result, err := v.Check(context.Background(), intent, "s-5", "Wordbridge Academy can help you.")

	require.NoError(t, err)
	assert.Equal(t, models.ValidationRejected, result.State)
	assert.Contains(t, result.Violations, models.ViolationMisalignment)
	assert.Equal(t, render.FallbackSentence, result.SanitizedText)
}

func TestValidator_EmptyResponseRejected(t *testing.T) {
	v := newTestValidator(t, catalogFixture(), &captureSink{})
	intent := models.Intent{RoutingClass: models.RouteChat, Tag: "chat"}

	result, err := v.Check(context.Background(), intent, "s-6", "   ")

	require.NoError(t, err)
	assert.Equal(t, models.ValidationRejected, result.State)
	assert.Contains(t, result.Violations, models.ViolationEmptyResponse)
}

func TestValidator_AllChecksRunForFullReport(t *testing.T) {
	v := newTestValidator(t, catalogFixture(), &captureSink{})
	intent := models.Intent{RoutingClass: models.RouteCatalog, Tag: "medical"}

	text := "No match found at Golden Dragon Emporium, but Mystery Clinic is great."
	result, err := v.Check(context.Background(), intent, "s-7", text)

	require.NoError(t, err)
	assert.Contains(t, result.Violations, models.ViolationBlacklist)
	assert.Contains(t, result.Violations, models.ViolationUnknownEntity)
	assert.Contains(t, result.Violations, models.ViolationContradiction)
	assert.Equal(t, models.ValidationRejected, result.State)
}

func TestValidator_StoreErrorPropagates(t *testing.T) {
	store := &fakeStore{err: fmt.Errorf("connection refused")}
	v := newTestValidator(t, store, &captureSink{})
	intent := models.Intent{RoutingClass: models.RouteCatalog, Tag: "medical"}

	_, err := v.Check(context.Background(), intent, "s-8", "Try Greenleaf Pharmacy today.")
	assert.Error(t, err)
}

func TestReplaceInsensitive(t *testing.T) {
	out := replaceInsensitive("visit GOLDEN dragon emporium now", "golden dragon emporium", "[removed]")
	assert.Equal(t, "visit [removed] now", out)

	out = replaceInsensitive("no hit here", "absent", "[removed]")
	assert.Equal(t, "no hit here", out)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "xyz pharmacy", normalizeName("XYZ-Pharmacy"))
	assert.Equal(t, "greenleaf pharmacy", normalizeName("  Greenleaf   Pharmacy "))
}

func TestHasNotFoundMarker(t *testing.T) {
	assert.True(t, hasNotFoundMarker(strings.ToLower("Sorry, no match found.")))
	assert.True(t, hasNotFoundMarker(strings.ToLower("That is not currently in our directory.")))
	assert.False(t, hasNotFoundMarker("here are three options"))
}
