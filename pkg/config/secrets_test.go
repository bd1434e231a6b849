package config

import (
	"os"
	"testing"
)

func TestEncryptDecryptSecretsRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	password := "test-password-12345"
	secrets := map[string]string{
		"ANTHROPIC_API_KEY": "sk-ant-test123",
		"OPENAI_API_KEY":    "sk-test-openai",
		"GOOGLE_API_KEY":    "AIza-test",
	}

	if err := EncryptSecretsFile(tmpDir, password, secrets); err != nil {
		t.Fatalf("Failed to encrypt secrets: %v", err)
	}

	info, err := os.Stat(SecretsPath(tmpDir))
	if err != nil {
		t.Fatalf("Secrets file was not created: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected file permissions 0600, got %04o", info.Mode().Perm())
	}
	if !SecretsFileExists(tmpDir) {
		t.Error("Expected SecretsFileExists to report true")
	}

	decrypted, err := DecryptSecretsFile(tmpDir, password)
	if err != nil {
		t.Fatalf("Failed to decrypt secrets: %v", err)
	}
	if len(decrypted) != len(secrets) {
		t.Errorf("Expected %d secrets, got %d", len(secrets), len(decrypted))
	}
	for key, expected := range secrets {
		if actual := decrypted[key]; actual != expected {
			t.Errorf("Secret %s: expected %q, got %q", key, expected, actual)
		}
	}
}

func TestDecryptWithWrongPassword(t *testing.T) {
	tmpDir := t.TempDir()

	if err := EncryptSecretsFile(tmpDir, "correct-password", map[string]string{"OPENAI_API_KEY": "sk"}); err != nil {
		t.Fatalf("Failed to encrypt secrets: %v", err)
	}
	if _, err := DecryptSecretsFile(tmpDir, "wrong-password"); err == nil {
		t.Error("Expected decryption with wrong password to fail")
	}
}

func TestDecryptCorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(tmpDir+"/"+StateDirName, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(SecretsPath(tmpDir), []byte("short"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := DecryptSecretsFile(tmpDir, "pw"); err == nil {
		t.Error("Expected error for truncated secrets file")
	}
}

func TestGetSecretPrecedence(t *testing.T) {
	defer SetDecryptedSecrets(nil)

	t.Setenv("ANTHROPIC_API_KEY", "from-env")
	SetDecryptedSecrets(map[string]string{"ANTHROPIC_API_KEY": "from-file"})

	value, err := GetSecret("ANTHROPIC_API_KEY")
	if err != nil {
		t.Fatalf("GetSecret failed: %v", err)
	}
	if value != "from-file" {
		t.Errorf("Expected decrypted secret to win, got %q", value)
	}

	SetDecryptedSecrets(nil)
	value, err = GetSecret("ANTHROPIC_API_KEY")
	if err != nil || value != "from-env" {
		t.Errorf("Expected env fallback, got %q (err=%v)", value, err)
	}
}

func TestGetSecretAlias(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	value, err := GetSecret("GOOGLE_API_KEY")
	if err != nil {
		t.Fatalf("GetSecret failed: %v", err)
	}
	if value != "gemini-key" {
		t.Errorf("Expected alias value, got %q", value)
	}
}

func TestGetSecretMissing(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := GetSecret("OPENAI_API_KEY"); err == nil {
		t.Error("Expected error for missing secret")
	}
}

func TestSecretNamesSorted(t *testing.T) {
	defer SetDecryptedSecrets(nil)
	SetDecryptedSecrets(map[string]string{"B": "2", "A": "1"})

	names := SecretNames()
	if len(names) != 2 || names[0] != "A" || names[1] != "B" {
		t.Errorf("Expected [A B], got %v", names)
	}
}
