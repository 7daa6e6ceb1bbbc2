package cli_test

import (
	"bytes"
	"checkout-service/internal/api"
	"checkout-service/internal/cli"
	"encoding/json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

const testCart = `{
  "id": "42",
  "customer_id": 7,
  "is_active": true,
  "items": [
    {"id": 1, "product_id": 10, "sku": "tee", "price": "10", "qty": "7", "buy_request": {"product": 10, "qty": "7"}},
    {"id": 2, "product_id": 11, "sku": "mug", "price": "4", "qty": "3", "buy_request": {"product": 11, "qty": "3"}},
    {"id": 3, "parent_item_id": 2, "product_id": 12, "sku": "mug-blue", "price": "4", "qty": "3"}
  ]
}`

type planResult struct {
	CartID   string          `json:"cart_id"`
	ItemsQty decimal.Decimal `json:"items_qty"`
	Split    bool            `json:"split"`
	Groups   []struct {
		Items []struct {
			ProductID int64           `json:"product"`
			Qty       decimal.Decimal `json:"qty"`
		} `json:"items"`
	} `json:"groups"`
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"SPLIT_THRESHOLD", "JWT_SECRET", "LOG_LEVEL", "ORDER_SHARD_DSNS"} {
		t.Setenv(k, "")
	}
}

func runPlan(t *testing.T, args ...string) planResult {
	t.Helper()
	cmd := cli.NewRootCmdForTest()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())

	var res planResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	return res
}

func TestPlan_SplitsOversizedCart(t *testing.T) {
	clearEnv(t)
	cfgPath := writeFile(t, "checkout.yaml", "split:\n  threshold: 5\n  max_qty_per_order: 4\n")
	cartPath := writeFile(t, "cart.json", testCart)

	res := runPlan(t, "plan", cartPath, "--config", cfgPath)

	assert.Equal(t, "42", res.CartID)
	assert.True(t, res.ItemsQty.Equal(decimal.NewFromInt(10)), "child lines are not counted")
	assert.True(t, res.Split)
	require.Len(t, res.Groups, 3)

	var got [][]string
	for _, g := range res.Groups {
		var lines []string
		for _, it := range g.Items {
			lines = append(lines, strconv.FormatInt(it.ProductID, 10)+"x"+it.Qty.String())
		}
		got = append(got, lines)
	}
	assert.Equal(t, [][]string{
		{"10x4"},
		{"10x3", "11x1"},
		{"11x2"},
	}, got)
}

func TestPlan_BelowThresholdIsNotSplit(t *testing.T) {
	clearEnv(t)
	cfgPath := writeFile(t, "checkout.yaml", "split:\n  threshold: 10\n")
	cartPath := writeFile(t, "cart.json", testCart)

	res := runPlan(t, "plan", cartPath, "-c", cfgPath)

	assert.False(t, res.Split)
	assert.Empty(t, res.Groups)
}

func TestPlan_InvalidCartFile(t *testing.T) {
	clearEnv(t)
	cfgPath := writeFile(t, "checkout.yaml", "")
	cartPath := writeFile(t, "cart.json", "{not json")

	cmd := cli.NewRootCmdForTest()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"plan", cartPath, "--config", cfgPath})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}

func TestPlan_InvalidConfig(t *testing.T) {
	clearEnv(t)
	cfgPath := writeFile(t, "checkout.yaml", "limits:\n  backend: etcd\n")
	cartPath := writeFile(t, "cart.json", testCart)

	cmd := cli.NewRootCmdForTest()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"plan", cartPath, "--config", cfgPath})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestToken_SignsWithConfiguredSecret(t *testing.T) {
	clearEnv(t)
	cfgPath := writeFile(t, "checkout.yaml", "jwt_secret: s3cret\n")

	cmd := cli.NewRootCmdForTest()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "--config", cfgPath, "--customer-id", "7", "--email", "jane@example.com"})
	require.NoError(t, cmd.Execute())

	claims := new(api.CustomerClaims)
	tkn, err := jwt.ParseWithClaims(strings.TrimSpace(out.String()), claims, func(*jwt.Token) (any, error) {
		return []byte("s3cret"), nil
	})
	require.NoError(t, err)
	assert.True(t, tkn.Valid)
	assert.Equal(t, int64(7), claims.CustomerID)
	assert.Equal(t, "jane@example.com", claims.Email)
}

func TestToken_RequiresCustomerID(t *testing.T) {
	clearEnv(t)
	cmd := cli.NewRootCmdForTest()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"token", "--config", filepath.Join(t.TempDir(), "missing.yaml")})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--customer-id")
}
