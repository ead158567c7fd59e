package budget

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billdesk/billdesk/internal/platform/httpx"
	"github.com/billdesk/billdesk/internal/remote"
)

func TestDecodeTreatsTempIDsAsDrafts(t *testing.T) {
	raw := `[
		{"type":"single","id":"temp-1699","catalogItemId":1,"name":"Internet Fibra 300Mb","price":45000,"quantity":1,"recurring":true},
		{"type":"single","id":88,"name":"IP Fija","price":3000},
		{"type":"single","id":89,"persisted":false,"name":"Copia","price":1},
		{"type":"package","originPlanId":10,"items":[]}
	]`
	var wire []WireItem
	require.NoError(t, json.Unmarshal([]byte(raw), &wire))

	items, err := Decode(wire)
	require.NoError(t, err)
	require.Len(t, items, 4)

	first := items[0].(Single)
	assert.False(t, first.Ref.Persisted)
	assert.Equal(t, "temp-1699", first.Key)
	assert.Equal(t, remote.ID("1"), first.CatalogItemID)

	second := items[1].(Single)
	assert.Equal(t, Saved("88"), second.Ref)

	third := items[2].(Single)
	assert.False(t, third.Ref.Persisted)

	pkg := items[3].(Package)
	assert.Equal(t, remote.ID("10"), pkg.ComboID)
	assert.False(t, pkg.Persisted())
	assert.NotEmpty(t, pkg.Key)
}

func TestDecodeRejectsMalformedItems(t *testing.T) {
	cases := []struct {
		name string
		item WireItem
	}{
		{"unknown type", WireItem{Type: "bundle"}},
		{"package without combo", WireItem{Type: KindPackage}},
		{"negative price", WireItem{Type: KindSingle, Price: dec("-1")}},
		{"persisted without id", WireItem{Type: KindSingle, Persisted: boolPtr(true)}},
		{"custom without name", WireItem{Type: KindSingle, CreateInCatalog: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]WireItem{tc.item})
			assert.ErrorIs(t, err, httpx.ErrValidation)
		})
	}
}

func TestDecodeRejectsInconsistentSavedPackages(t *testing.T) {
	saved := WireItem{Type: KindSingle, ID: "m1", Persisted: boolPtr(true), Name: "Internet Fibra 300Mb", Price: dec("25000")}
	draft := WireItem{Type: KindSingle, ID: "temp-new", CatalogItemID: "3", Name: "Instalación", Price: dec("10000")}

	cases := []struct {
		name string
		item WireItem
	}{
		{"saved without members", WireItem{Type: KindPackage, OriginPlanID: "10", Persisted: boolPtr(true)}},
		{"saved with draft member", WireItem{Type: KindPackage, OriginPlanID: "10", Items: []WireItem{saved, draft}}},
		{"flag marks draft package as saved", WireItem{Type: KindPackage, OriginPlanID: "10", Persisted: boolPtr(true), Items: []WireItem{draft}}},
		{"flag marks saved package as draft", WireItem{Type: KindPackage, OriginPlanID: "10", Persisted: boolPtr(false), Items: []WireItem{saved}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]WireItem{tc.item})
			assert.ErrorIs(t, err, httpx.ErrValidation)
		})
	}

	items, err := Decode([]WireItem{{Type: KindPackage, OriginPlanID: "10", Persisted: boolPtr(true), Items: []WireItem{saved}}})
	require.NoError(t, err)
	assert.True(t, items[0].(Package).Persisted())
}

func TestEncodeCarriesExplicitPersistence(t *testing.T) {
	items := []Item{
		Single{Key: "k1", Name: "Draft", Price: dec("10"), Quantity: 2},
		Package{Key: "k2", ComboID: "10", Name: "Pack", Members: []Single{
			{Key: "m1", Ref: Saved("m1"), Price: dec("25000"), Quantity: 1},
			{Key: "m2", Ref: Saved("m2"), Price: dec("3000"), Quantity: 1},
		}},
	}

	wire := Encode(items)
	require.Len(t, wire, 2)
	assert.Equal(t, KindSingle, wire[0].Type)
	require.NotNil(t, wire[0].Persisted)
	assert.False(t, *wire[0].Persisted)
	assert.True(t, wire[0].Total.Equal(dec("20")))

	assert.Equal(t, KindPackage, wire[1].Type)
	require.NotNil(t, wire[1].Persisted)
	assert.True(t, *wire[1].Persisted)
	assert.Len(t, wire[1].Items, 2)
	assert.True(t, wire[1].Total.Equal(dec("28000")))

	back, err := Decode(wire)
	require.NoError(t, err)
	assert.Equal(t, Saved("m1"), back[1].(Package).Members[0].Ref)
}
