package completion

import "testing"

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(ModelEnv, "qwen2.5-coder")
	t.Setenv(APIURLEnv, "http://gpu-box:11434")
	t.Setenv(APIKeyEnv, "token")

	cfg := ConfigFromEnv()
	if cfg.Model != "qwen2.5-coder" || cfg.APIURL != "http://gpu-box:11434" || cfg.APIKey != "token" {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.Enabled() {
		t.Error("configured model must enable the provider")
	}
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv(ModelEnv, "")
	t.Setenv(APIURLEnv, "")
	t.Setenv(APIKeyEnv, "")

	cfg := ConfigFromEnv()
	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("APIURL = %q, want default", cfg.APIURL)
	}
	if cfg.Enabled() {
		t.Error("missing model must disable the provider")
	}
}
