package trust

import "golang.org/x/crypto/ssh"

// TrustedKeys parses each of the given authorized_keys-format lines
// into an ssh.PublicKey, in the order supplied by the caller, for use
// with Verify. The trusted-key list itself is compiled into the
// binary (or the manifest of a signed repository) by the caller: this
// package only knows how to parse and use it, per §4.7's "compiled-in
// trusted-key list".
func TrustedKeys(authorizedKeyLines [][]byte) ([]ssh.PublicKey, error) {
	keys := make([]ssh.PublicKey, 0, len(authorizedKeyLines))
	for _, line := range authorizedKeyLines {
		key, _, _, _, err := ssh.ParseAuthorizedKey(line)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}
