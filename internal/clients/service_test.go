package clients

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billdesk/billdesk/internal/platform/httpx"
	"github.com/billdesk/billdesk/internal/remote"
)

func seededRecord() remote.ClientRecord {
	balance := decimal.RequireFromString("-3000")
	debt := decimal.RequireFromString("3000")
	active := true
	return remote.ClientRecord{
		ID:           "42",
		Name:         strPtr("Juan Pérez"),
		BusinessName: strPtr("JP Servicios"),
		Cuit:         strPtr("20-12345678-9"),
		TaxCondition: strPtr("Monotributo"),
		Email:        strPtr("juan@example.com"),
		Phone:        strPtr("+54 11 5555"),
		Address:      strPtr("Calle 1"),
		City:         strPtr("Rosario"),
		Status:       strPtr("lead"),
		IsActive:     &active,
		Balance:      &balance,
		Debt:         &debt,
		Obs:          strPtr("instalar martes"),
		InternalObs:  strPtr("cliente referido"),
	}
}

func TestUpdateStatusSendsFullPayload(t *testing.T) {
	up := newFakeUpstream(seededRecord())
	svc := NewService(up, nil)

	before := Adapt(seededRecord())
	updated, err := svc.UpdateStatus(context.Background(), "42", "proposal")
	require.NoError(t, err)
	require.Len(t, up.patches, 1)

	raw, _ := json.Marshal(ToPayload(before))
	var full map[string]any
	require.NoError(t, json.Unmarshal(raw, &full))

	body := up.patches[0]
	for key, value := range full {
		require.Contains(t, body, key)
		if key == "status" {
			continue
		}
		assert.Equal(t, value, body[key], key)
	}
	assert.Equal(t, "proposal", body["status"])

	// The destructive upstream kept everything because nothing was omitted.
	assert.Equal(t, "proposal", updated.Status)
	assert.Equal(t, "JP Servicios", updated.BusinessName)
	assert.True(t, updated.Balance.Equal(decimal.RequireFromString("-3000")))
	assert.Equal(t, "20-12345678-9", updated.Cuit)
}

func TestDeactivateAndReactivate(t *testing.T) {
	up := newFakeUpstream(seededRecord())
	svc := NewService(up, nil)
	ctx := context.Background()

	c, err := svc.Deactivate(ctx, "42")
	require.NoError(t, err)
	assert.False(t, c.IsActive)
	assert.Equal(t, "Juan Pérez", c.Name)

	list, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, list)

	c, err = svc.Reactivate(ctx, "42")
	require.NoError(t, err)
	assert.True(t, c.IsActive)
	assert.Equal(t, "Rosario", c.City)
}

func TestUpdateFieldsEmptyPatchSkipsUpstream(t *testing.T) {
	up := newFakeUpstream(seededRecord())
	svc := NewService(up, nil)

	c, err := svc.UpdateFields(context.Background(), "42", Patch{})
	require.NoError(t, err)
	assert.Equal(t, "Juan Pérez", c.Name)
	assert.Empty(t, up.patches)
}

func TestUpdateFieldsPropagatesErrors(t *testing.T) {
	up := newFakeUpstream(seededRecord())
	up.patchError = errors.New("connection reset")
	svc := NewService(up, nil)

	_, err := svc.UpdateStatus(context.Background(), "42", "active")
	require.Error(t, err)

	_, err = svc.UpdateStatus(context.Background(), "missing", "active")
	assert.ErrorIs(t, err, httpx.ErrNotFound)

	_, err = svc.UpdateStatus(context.Background(), "42", "")
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateDefaultsStatusAndDebt(t *testing.T) {
	up := newFakeUpstream()
	svc := NewService(up, nil)

	c, err := svc.Create(context.Background(), CreateRequest{
		Name:    "Nueva Cliente",
		Balance: decimal.RequireFromString("-500"),
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultStatus, c.Status)
	assert.True(t, c.IsActive)
	assert.True(t, c.Debt.Equal(decimal.NewFromInt(500)))
	assert.False(t, c.ID.IsZero())
}

func TestUpdateFieldsBalanceSettlesDebt(t *testing.T) {
	up := newFakeUpstream(seededRecord())
	svc := NewService(up, nil)

	zero := decimal.Zero
	c, err := svc.UpdateFields(context.Background(), "42", Patch{Balance: &zero})
	require.NoError(t, err)
	require.Len(t, up.patches, 1)
	assert.Equal(t, float64(0), up.patches[0]["balance"])
	assert.Equal(t, float64(0), up.patches[0]["debt"])
	assert.True(t, c.Balance.IsZero())
	assert.True(t, c.Debt.IsZero())
}

func TestUpdateFieldsDebtDerivesBalance(t *testing.T) {
	up := newFakeUpstream(seededRecord())
	svc := NewService(up, nil)

	debt := decimal.NewFromInt(1200)
	c, err := svc.UpdateFields(context.Background(), "42", Patch{Debt: &debt})
	require.NoError(t, err)
	require.Len(t, up.patches, 1)
	assert.Equal(t, float64(-1200), up.patches[0]["balance"])
	assert.Equal(t, float64(1200), up.patches[0]["debt"])
	assert.True(t, c.Balance.Equal(decimal.NewFromInt(-1200)))
}

func TestUpdateFieldsRejectsContradictoryMoney(t *testing.T) {
	up := newFakeUpstream(seededRecord())
	svc := NewService(up, nil)

	balance := decimal.Zero
	debt := decimal.NewFromInt(3000)
	_, err := svc.UpdateFields(context.Background(), "42", Patch{Balance: &balance, Debt: &debt})
	assert.ErrorIs(t, err, httpx.ErrValidation)
	assert.Empty(t, up.patches)

	balance = decimal.NewFromInt(-250)
	debt = decimal.NewFromInt(250)
	c, err := svc.UpdateFields(context.Background(), "42", Patch{Balance: &balance, Debt: &debt})
	require.NoError(t, err)
	assert.True(t, c.Debt.Equal(debt))
}
