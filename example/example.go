package main

import (
	"encoding/hex"
	"fmt"

	"go.dedis.ch/kyber/v3/group/edwards25519"
	"go.dedis.ch/kyber/v3/util/key"

	"multicipher/keyset"
	"multicipher/primitive"
)

func main() {
	// this is public and fixed for everyone sharing the secret
	spec := keyset.Spec{KeyLength: 256, CipherSteps: 4}
	secret := []byte("a secret that is definitely longer than thirty-two bytes")

	ks, err := keyset.New(spec, primitive.NewFactory())
	if err != nil {
		panic(err.Error())
	}
	if err := ks.BuildFromSecret(secret); err != nil {
		panic(err.Error())
	}
	fmt.Println(ks.Describe())

	msg := "And presently I was driving through the drizzle of the dying day, with the windshield wipers in full action but unable to cope with my tears."
	aad := []byte("chapter 26")

	fmt.Printf("Message: %v\n", msg)
	fmt.Println(hex.Dump([]byte(msg)))

	blob, err := ks.EncryptAAD(aad, []byte(msg))
	if err != nil {
		panic(err.Error())
	}
	fmt.Printf("Envelope (%d bytes, header %d, tag %d):\n", len(blob), spec.HeaderLength(), keyset.MacLength)
	fmt.Println(hex.Dump(blob))

	// anyone holding the same secret rebuilds the same key set
	other, err := keyset.New(spec, primitive.NewFactory())
	if err != nil {
		panic(err.Error())
	}
	if err := other.BuildFromSecret(secret); err != nil {
		panic(err.Error())
	}
	decrypted, err := other.DecryptAAD(aad, blob)
	if err != nil {
		panic(err.Error())
	}
	fmt.Printf("Decrypted: %v\n\n", string(decrypted))

	blob[len(blob)-1] ^= 1
	if _, err := other.DecryptAAD(aad, blob); keyset.IsDataError(err) {
		fmt.Printf("Tampered envelope rejected: %v\n\n", err)
	}

	// key material travels wrapped
	suite := edwards25519.NewBlakeSHA256Ed25519()
	pair := key.NewKeyPair(suite)
	wrapped, err := ks.SecurePrivateKey(pair)
	if err != nil {
		panic(err.Error())
	}
	fmt.Printf("Wrapped private key (%d bytes):\n", len(wrapped))
	fmt.Println(hex.Dump(wrapped))

	recovered, err := other.DerivePrivateKey(suite, wrapped)
	if err != nil {
		panic(err.Error())
	}
	fmt.Printf("Recovered public key matches: %v\n", recovered.Public.Equal(pair.Public))
}
