package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Paddle signs the raw request body and sends the result as
// "ts=<unix_seconds>,h1=<hex_hmac>" in the Paddle-Signature header.
const signatureMaxAge = 5 * time.Minute

// VerifyPaddleWebhookSignature checks a Paddle-Signature header against the
// raw (unparsed) request body. It returns false on any missing, stale,
// malformed or mismatching input and never panics.
func VerifyPaddleWebhookSignature(rawBody []byte, signatureHeader, webhookSecret string) bool {
	return verifySignatureAt(rawBody, signatureHeader, webhookSecret, time.Now())
}

func verifySignatureAt(rawBody []byte, signatureHeader, webhookSecret string, now time.Time) bool {
	header := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(webhookSecret)
	if header == "" || secret == "" {
		return false
	}

	fields := parseSignatureHeader(header)

	ts, err := strconv.ParseInt(fields["ts"], 10, 64)
	if err != nil {
		return false
	}
	age := now.Unix() - ts
	if age < 0 {
		age = -age
	}
	// Stale or far-future timestamps are replays or clock skew beyond the
	// tolerated window.
	if time.Duration(age)*time.Second > signatureMaxAge {
		return false
	}

	providedSig, err := hex.DecodeString(strings.ToLower(fields["h1"]))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	return hmac.Equal(mac.Sum(nil), providedSig)
}

func parseSignatureHeader(header string) map[string]string {
	fields := make(map[string]string)
	for _, segment := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(segment), "=")
		if !found {
			continue
		}
		fields[key] = value
	}
	return fields
}
