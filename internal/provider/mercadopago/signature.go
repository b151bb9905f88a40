package mercadopago

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	domainErrors "github.com/lucasferr/payrelay/internal/domain/errors"
)

// VerifySignature validates a Mercado Pago webhook signature header.
// The x-signature header carries "ts=<unix>,v1=<hex hmac>", where the HMAC
// is SHA-256 over the manifest "id:<data.id>;request-id:<x-request-id>;ts:<ts>;"
// keyed with the account's webhook secret.
func VerifySignature(secret, signatureHeader, requestID, dataID string) error {
	ts, v1, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return err
	}

	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", strings.ToLower(dataID), requestID, ts)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(v1)) {
		return domainErrors.ErrInvalidSignature
	}
	return nil
}

func parseSignatureHeader(header string) (ts, v1 string, err error) {
	if header == "" {
		return "", "", domainErrors.ErrInvalidSignature
	}
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "ts":
			ts = v
		case "v1":
			v1 = v
		}
	}
	if ts == "" || v1 == "" {
		return "", "", domainErrors.ErrInvalidSignature
	}
	return ts, v1, nil
}
