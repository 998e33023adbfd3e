package audit

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/hai-ai/jacs-go/pkg/crypto"
	"github.com/hai-ai/jacs-go/pkg/kms"
)

// checkKeyEncryption flags a private key file stored as raw bytes rather
// than a password-protected envelope.
func checkKeyEncryption(req Request) []Finding {
	if req.KeyDir == "" || req.PrivateKeyFilename == "" {
		return nil
	}
	path := filepath.Join(req.KeyDir, req.PrivateKeyFilename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Finding{finding("private_key_encryption", SeverityWarn, "no private key file found at "+path)}
		}
		return []Finding{finding("private_key_encryption", SeverityWarn, "could not read private key file: "+err.Error())}
	}
	if kms.IsEnvelope(data) {
		return []Finding{finding("private_key_encryption", SeverityOK, "private key is stored in an encrypted envelope")}
	}
	return []Finding{finding("private_key_encryption", SeverityFail, "private key at "+path+" is stored unencrypted on disk")}
}

// checkKeyDirPermissions flags a key directory readable by users other
// than its owner. Windows has no comparable POSIX permission bits, so
// the check is a no-op there rather than a false positive.
func checkKeyDirPermissions(req Request) []Finding {
	if req.KeyDir == "" || runtime.GOOS == "windows" {
		return nil
	}
	info, err := os.Stat(req.KeyDir)
	if err != nil {
		return []Finding{finding("key_directory_permissions", SeverityWarn, "could not stat key directory: "+err.Error())}
	}
	if info.Mode().Perm()&0o077 != 0 {
		return []Finding{finding("key_directory_permissions", SeverityFail,
			"key directory "+req.KeyDir+" is readable by group or other: mode "+info.Mode().Perm().String())}
	}
	return []Finding{finding("key_directory_permissions", SeverityOK, "key directory permissions are owner-only")}
}

// checkStaleAlgorithm flags an agent configured to sign with a deprecated
// algorithm tag.
func checkStaleAlgorithm(req Request) []Finding {
	if req.Algorithm == "" {
		return nil
	}
	alg := crypto.Algorithm(req.Algorithm)
	if alg.Deprecated() {
		return []Finding{finding("signing_algorithm", SeverityWarn,
			"agent signs with deprecated algorithm "+req.Algorithm+"; rotate to a current tag")}
	}
	return []Finding{finding("signing_algorithm", SeverityOK, "agent signs with a current algorithm")}
}
