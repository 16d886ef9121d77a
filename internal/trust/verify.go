// Package trust verifies PEM-armored SSH signatures against a
// compiled-in trusted-key list, per §4.7. It decodes the OpenSSH
// SSHSIG wire format by hand (golang.org/x/crypto/ssh has no built-in
// helper for this armor) and delegates the actual cryptographic check
// to ssh.PublicKey.Verify.
package trust

import (
	"bytes"
	"crypto/sha512"
	"encoding/binary"
	"encoding/pem"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/ssh"
)

// sigMagic is the fixed 6-byte preamble of every SSHSIG blob.
const sigMagic = "SSHSIG"

const pemBlockType = "SSH SIGNATURE"

// Namespace is the compiled-in namespace every accepted signature must
// have been produced for; a mismatch is always a terminal error,
// regardless of which key produced the signature (§4.7: "retrying with
// another key cannot change the namespace").
const Namespace = "lontra"

// Error kinds matching §4.7's outcome table exactly.
var (
	ErrInvalidSignature  = errors.New("invalid signature encoding")
	ErrUntrustedSignature = errors.New("no trusted key matched")
)

// InvalidNamespaceError is returned when the signature's namespace does
// not equal Namespace.
type InvalidNamespaceError struct{ Got string }

func (e *InvalidNamespaceError) Error() string {
	return fmt.Sprintf("invalid signature namespace: got %q, want %q", e.Got, Namespace)
}

// CryptographicError is returned when a key's public identity matched
// but the cryptographic check itself failed.
type CryptographicError struct {
	Key   string
	Cause error
}

func (e *CryptographicError) Error() string {
	return fmt.Sprintf("cryptographic verification failed for key %s: %v", e.Key, e.Cause)
}
func (e *CryptographicError) Unwrap() error { return e.Cause }

// parsedSignature is the decoded SSHSIG envelope.
type parsedSignature struct {
	publicKey     ssh.PublicKey
	namespace     string
	hashAlgorithm string
	signature     *ssh.Signature
}

// decode parses a PEM-armored SSHSIG blob.
func decode(armored []byte) (*parsedSignature, error) {
	block, _ := pem.Decode(armored)
	if block == nil || block.Type != pemBlockType {
		return nil, fmt.Errorf("%w: not a %q PEM block", ErrInvalidSignature, pemBlockType)
	}
	r := bytes.NewReader(block.Bytes)
	magic := make([]byte, len(sigMagic))
	if _, err := readFull(r, magic); err != nil || string(magic) != sigMagic {
		return nil, fmt.Errorf("%w: bad magic preamble", ErrInvalidSignature)
	}
	var version uint32
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	pubKeyBlob, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("%w: public key: %v", ErrInvalidSignature, err)
	}
	namespace, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("%w: namespace: %v", ErrInvalidSignature, err)
	}
	if _, err := readString(r); err != nil { // reserved
		return nil, fmt.Errorf("%w: reserved: %v", ErrInvalidSignature, err)
	}
	hashAlgorithm, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("%w: hash algorithm: %v", ErrInvalidSignature, err)
	}
	sigBlob, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("%w: signature: %v", ErrInvalidSignature, err)
	}
	pubKey, err := ssh.ParsePublicKey(pubKeyBlob)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing public key: %v", ErrInvalidSignature, err)
	}
	sig, err := unpackSignature(sigBlob)
	if err != nil {
		return nil, fmt.Errorf("%w: unpacking signature: %v", ErrInvalidSignature, err)
	}
	return &parsedSignature{
		publicKey:     pubKey,
		namespace:     string(namespace),
		hashAlgorithm: string(hashAlgorithm),
		signature:     sig,
	}, nil
}

// unpackSignature decodes an SSH wire-format signature: a string
// format id followed by a string signature blob.
func unpackSignature(blob []byte) (*ssh.Signature, error) {
	r := bytes.NewReader(blob)
	format, err := readString(r)
	if err != nil {
		return nil, err
	}
	data, err := readString(r)
	if err != nil {
		return nil, err
	}
	return &ssh.Signature{Format: string(format), Blob: data}, nil
}

// signedData reconstructs the exact byte sequence the signer hashed and
// signed: "SSHSIG" || namespace || reserved || hash_algorithm ||
// H(message), itself wire-encoded.
func signedData(namespace, hashAlgorithm string, message []byte) ([]byte, error) {
	var digest []byte
	switch hashAlgorithm {
	case "sha512", "":
		sum := sha512.Sum512(message)
		digest = sum[:]
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %q", hashAlgorithm)
	}
	var buf bytes.Buffer
	buf.WriteString(sigMagic)
	writeString(&buf, []byte(namespace))
	writeString(&buf, nil) // reserved
	algo := hashAlgorithm
	if algo == "" {
		algo = "sha512"
	}
	writeString(&buf, []byte(algo))
	writeString(&buf, digest)
	return buf.Bytes(), nil
}

func readFull(r *bytes.Reader, buf []byte) (int, error) {
	return io.ReadFull(r, buf)
}

func readString(r *bytes.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func writeString(buf *bytes.Buffer, s []byte) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
	buf.Write(lenBuf[:])
	buf.Write(s)
}

// Verify checks armored as a detached SSHSIG signature over message,
// trying each of trustedKeys in order, and returns nil iff one
// cryptographically verifies. It is fail-closed: every other path
// returns a non-nil error.
func Verify(armored, message []byte, trustedKeys []ssh.PublicKey) error {
	sig, err := decode(armored)
	if err != nil {
		return err
	}
	if sig.namespace != Namespace {
		return &InvalidNamespaceError{Got: sig.namespace}
	}
	data, err := signedData(sig.namespace, sig.hashAlgorithm, message)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	for _, trusted := range trustedKeys {
		if !bytes.Equal(trusted.Marshal(), sig.publicKey.Marshal()) {
			continue
		}
		if err := trusted.Verify(data, sig.signature); err != nil {
			return &CryptographicError{Key: ssh.FingerprintSHA256(trusted), Cause: err}
		}
		return nil
	}
	return ErrUntrustedSignature
}
