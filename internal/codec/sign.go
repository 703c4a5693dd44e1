package codec

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strconv"
)

const txAuthDomain = "hexbet/tx/v1"

// SignBytes returns the message an envelope signature covers:
// DOMAIN || 0x00 || type || 0x00 || nonce || 0x00 || signer || 0x00 || sha256(value)
func SignBytes(typ string, value []byte, nonce string, signer string) []byte {
	sum := sha256.Sum256(value)
	out := make([]byte, 0, len(txAuthDomain)+1+len(typ)+1+len(nonce)+1+len(signer)+1+sha256.Size)
	out = append(out, []byte(txAuthDomain)...)
	out = append(out, 0)
	out = append(out, []byte(typ)...)
	out = append(out, 0)
	out = append(out, []byte(nonce)...)
	out = append(out, 0)
	out = append(out, []byte(signer)...)
	out = append(out, 0)
	out = append(out, sum[:]...)
	return out
}

// SignedTx encodes value as a tx of type typ signed by signer with priv.
func SignedTx(typ string, value any, nonce uint64, signer string, priv ed25519.PrivateKey) ([]byte, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid private key length %d", len(priv))
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode %s value: %w", typ, err)
	}
	n := strconv.FormatUint(nonce, 10)
	env := TxEnvelope{
		Type:   typ,
		Value:  raw,
		Nonce:  n,
		Signer: signer,
		Sig:    ed25519.Sign(priv, SignBytes(typ, raw, n, signer)),
	}
	return json.Marshal(env)
}
