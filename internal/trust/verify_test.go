package trust

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"encoding/pem"
	"errors"
	"testing"

	"golang.org/x/crypto/ssh"
)

// signForTest builds a PEM-armored SSHSIG blob for message under
// namespace, signed by signer — the same envelope an "ssh-keygen -Y
// sign" invocation would produce, but built by hand here so the test
// does not depend on an external ssh-keygen binary being installed.
func signForTest(t *testing.T, signer ssh.Signer, namespace string, message []byte) []byte {
	t.Helper()
	data, err := signedData(namespace, "sha512", message)
	if err != nil {
		t.Fatal(err)
	}
	sig, err := signer.Sign(rand.Reader, data)
	if err != nil {
		t.Fatal(err)
	}
	var sigBlobBuf bytes.Buffer
	writeString(&sigBlobBuf, []byte(sig.Format))
	writeString(&sigBlobBuf, sig.Blob)

	var blob bytes.Buffer
	blob.WriteString(sigMagic)
	var versionBuf [4]byte
	binary.BigEndian.PutUint32(versionBuf[:], 1)
	blob.Write(versionBuf[:])
	writeString(&blob, signer.PublicKey().Marshal())
	writeString(&blob, []byte(namespace))
	writeString(&blob, nil)
	writeString(&blob, []byte("sha512"))
	writeString(&blob, sigBlobBuf.Bytes())

	return pem.EncodeToMemory(&pem.Block{Type: pemBlockType, Bytes: blob.Bytes()})
}

func TestVerifySucceedsForTrustedKey(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatal(err)
	}
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		t.Fatal(err)
	}
	message := []byte("release-42")
	armored := signForTest(t, signer, Namespace, message)

	if err := Verify(armored, message, []ssh.PublicKey{sshPub}); err != nil {
		t.Fatalf("Verify: unexpected error: %v", err)
	}
}

func TestVerifyRejectsWrongNamespace(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatal(err)
	}
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		t.Fatal(err)
	}
	message := []byte("release-42")
	armored := signForTest(t, signer, "some-other-namespace", message)

	err = Verify(armored, message, []ssh.PublicKey{sshPub})
	var nsErr *InvalidNamespaceError
	if !errors.As(err, &nsErr) {
		t.Fatalf("Verify: expected *InvalidNamespaceError, got %v (%T)", err, err)
	}
}

func TestVerifyRejectsUntrustedKey(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatal(err)
	}
	otherPub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	otherSSHPub, err := ssh.NewPublicKey(otherPub)
	if err != nil {
		t.Fatal(err)
	}
	message := []byte("release-42")
	armored := signForTest(t, signer, Namespace, message)

	err = Verify(armored, message, []ssh.PublicKey{otherSSHPub})
	if !errors.Is(err, ErrUntrustedSignature) {
		t.Fatalf("Verify: expected ErrUntrustedSignature, got %v", err)
	}
}
