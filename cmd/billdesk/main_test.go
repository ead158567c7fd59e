package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/billdesk/billdesk/internal/app"
	_ "github.com/billdesk/billdesk/testing"
)

func TestMainReturnsInTestMode(t *testing.T) {
	require.True(t, app.InTestMode())
	main()
}
