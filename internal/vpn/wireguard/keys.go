package wireguard

import (
	"wgdash/internal/apperr"

	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

// KeyPair — base64-пара ключей в формате wg(8).
type KeyPair struct {
	PrivateKey string
	PublicKey  string
}

// GenerateKeyPair создаёт новую пару curve25519.
func GenerateKeyPair() (KeyPair, error) {
	priv, err := wgtypes.GeneratePrivateKey()
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{PrivateKey: priv.String(), PublicKey: priv.PublicKey().String()}, nil
}

// KeyPairFromPrivate выводит публичный ключ из приватного.
func KeyPairFromPrivate(op, private string) (KeyPair, error) {
	priv, err := wgtypes.ParseKey(private)
	if err != nil {
		return KeyPair{}, apperr.Validation(op, "invalid base64 private key: '%s'", private)
	}
	return KeyPair{PrivateKey: priv.String(), PublicKey: priv.PublicKey().String()}, nil
}

// GeneratePresharedKey — случайные 32 байта в base64.
func GeneratePresharedKey() (string, error) {
	psk, err := wgtypes.GenerateKey()
	if err != nil {
		return "", err
	}
	return psk.String(), nil
}

// ParsePublicKey разбирает сохранённый публичный ключ.
func ParsePublicKey(s string) (wgtypes.Key, error) {
	return wgtypes.ParseKey(s)
}
