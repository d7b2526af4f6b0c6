package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/f1r3fly-io/embers-client/address"
	"github.com/f1r3fly-io/embers-client/crypto"
	"github.com/f1r3fly-io/embers-client/events"
	"github.com/f1r3fly-io/embers-client/testdata"
)

func TestNewFormatter(t *testing.T) {
	formatter := NewFormatter()
	require.NotNil(t, formatter)
}

func TestFormatSummary(t *testing.T) {
	formatter := NewFormatter()

	t.Run("labelled values", func(t *testing.T) {
		result := formatter.FormatSummary("Transfer Submitted", []Field{
			{Label: "Deploy ID", Value: "d1"},
			{Label: "Observed"},
		}, "")
		require.Contains(t, result, "=== Transfer Submitted ===")
		require.Contains(t, result, "✓ Deploy ID: d1\n")
		require.Contains(t, result, "✓ Observed\n")
	})

	t.Run("with indent", func(t *testing.T) {
		result := formatter.FormatSummary("Nested", []Field{{Label: "a", Value: "b"}}, "  ")
		require.Contains(t, result, "  ✓ a: b")
	})
}

func TestShortHex(t *testing.T) {
	formatter := NewFormatter()
	require.Equal(t, "0102", formatter.ShortHex([]byte{1, 2}))
	require.Equal(t, "0001020304050607...", formatter.ShortHex([]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}))
}

func TestFormatKeyPair(t *testing.T) {
	formatter := NewFormatter()
	kp, err := crypto.KeyPairFromHex("0b4e12ec24d2f42f3fc826194750e3168a5f03071f382375c29a5e801dbbe8a5")
	require.NoError(t, err)

	result := formatter.FormatKeyPair(kp)
	require.Equal(t, testdata.WalletAddress, result["address"])
	require.Equal(t, kp.URI(), result["uri"])
	require.Equal(t, kp.PublicKeyHex(), result["publicKey"])

	fromPub := formatter.FormatPublicKey(kp.PublicKeyBytes(), kp.Address())
	require.Equal(t, result, fromPub)
}

func TestFormatEvent(t *testing.T) {
	formatter := NewFormatter()
	addr := address.Address(testdata.WalletAddress)

	t.Run("full event", func(t *testing.T) {
		result := formatter.FormatEvent(addr, &events.DeployEvent{
			Type:     events.EventFinalized,
			DeployID: "d1",
			Cost:     "42",
			NodeType: events.NodeObserver,
		})
		require.Equal(t, testdata.WalletAddress, result["address"])
		require.Equal(t, "d1", result["deployId"])
		require.Equal(t, uint64(42), result["cost"])
		require.Equal(t, "Observer", result["nodeType"])
		require.Equal(t, "Finalized", result["type"])
		require.Equal(t, false, result["errored"])
	})

	t.Run("unparseable cost is omitted", func(t *testing.T) {
		result := formatter.FormatEvent(addr, &events.DeployEvent{DeployID: "d2", Cost: "n/a", Errored: true})
		require.NotContains(t, result, "cost")
		require.NotContains(t, result, "type")
		require.Equal(t, true, result["errored"])
	})
}

func TestFormatTransfer(t *testing.T) {
	formatter := NewFormatter()
	from := address.Address(testdata.WalletAddress)

	result := formatter.FormatTransfer(from, from, 7, "d1", true)
	require.Equal(t, int64(7), result["amount"])
	require.Equal(t, "d1", result["deployId"])
	require.Equal(t, true, result["confirmed"])
}
