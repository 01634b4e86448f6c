package walletrpc

import (
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
)

func TestRecoveryDescriptor(t *testing.T) {
	got := RecoveryDescriptor("cVtest", "abcd1234")
	require.Equal(t, "rawtr(cVtest)#abcd1234", got)
}

func TestUnchecksummedRecoveryDescriptor(t *testing.T) {
	privKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	descriptor, wif := UnchecksummedRecoveryDescriptor(privKey, &chaincfg.RegressionNetParams)
	require.NotEmpty(t, wif)
	require.True(t, strings.HasPrefix(descriptor, "rawtr("))
	require.True(t, strings.HasSuffix(descriptor, ")"))
	require.Contains(t, descriptor, wif)
	require.Equal(t, descriptor+"#deadbeef", RecoveryDescriptor(wif, "deadbeef"))
}
