package auth

import "testing"

func TestHashSecretNotPlaintext(t *testing.T) {
	hash, err := HashSecret("s3cret-pass")
	if err != nil {
		t.Fatalf("HashSecret returned error: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatal("hash must not equal the plaintext secret")
	}
	if hash == "" {
		t.Fatal("hash must not be empty")
	}
}

func TestVerifySecret(t *testing.T) {
	hash, err := HashSecret("1234")
	if err != nil {
		t.Fatalf("HashSecret returned error: %v", err)
	}

	if !VerifySecret(hash, "1234") {
		t.Fatal("VerifySecret must accept the matching secret")
	}
	if VerifySecret(hash, "4321") {
		t.Fatal("VerifySecret must reject a mismatched secret")
	}
	if VerifySecret(hash, "") {
		t.Fatal("VerifySecret must reject an empty secret")
	}
}

func TestHashSecretUniqueSalt(t *testing.T) {
	first, err := HashSecret("same-input")
	if err != nil {
		t.Fatalf("HashSecret returned error: %v", err)
	}
	second, err := HashSecret("same-input")
	if err != nil {
		t.Fatalf("HashSecret returned error: %v", err)
	}
	if first == second {
		t.Fatal("two hashes of the same input must differ by salt")
	}
}
