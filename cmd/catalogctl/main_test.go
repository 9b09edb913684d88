/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/bookcatalog/config"
)

func TestPrintConfigRedactsSecret(t *testing.T) {
	cfg := config.Default()
	cfg.DynamoDB.AccessKey = "AKIDEXAMPLE"
	cfg.DynamoDB.SecretKey = "wJalrXUtnFEMI"

	var out bytes.Buffer
	require.NoError(t, printConfig(&out, cfg))
	assert.Contains(t, out.String(), "region: us-east-1")
	assert.Contains(t, out.String(), "secretKey:")
	assert.NotContains(t, out.String(), "wJalrXUtnFEMI")
	assert.Equal(t, "wJalrXUtnFEMI", cfg.DynamoDB.SecretKey)
}

func TestOneArg(t *testing.T) {
	id, err := oneArg("stats", []string{"b1"})
	require.NoError(t, err)
	assert.Equal(t, "b1", id)

	_, err = oneArg("stats", nil)
	assert.Error(t, err)
}

func TestPrintJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printJSON(&out, map[string]int{"count": 2}))
	assert.Equal(t, "{\n  \"count\": 2\n}\n", out.String())
}
