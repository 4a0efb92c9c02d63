package classify

import (
	"path"
	"strings"
)

type nameRule struct {
	substr string
	label  string
}

// Checked in order against the lowercased command line. "code " and the npm
// entries keep their trailing space so "vscode-helper" or "npmrc" do not hit;
// a bare "code" or "npm" with no arguments falls through to comm.
var processNames = []nameRule{
	{"claude", "Claude Code"},
	{"antigravity", "Antigravity"},
	{"ollama", "Ollama"},
	{"vllm", "vLLM"},
	{"tritonserver", "Triton Server"},
	{"torchrun", "PyTorch DDP"},
	{"deepspeed", "DeepSpeed"},
	{"jupyter", "Jupyter"},
	{"nvcc", "CUDA Compiler"},
	{"code-server", "VS Code Server"},
	{"code ", "VS Code"},
	{"docker", "Docker"},
	{"containerd", "containerd"},
	{"npm ", "npm"},
	{"npx ", "npx"},
}

var gpuProcessNames = []nameRule{
	{"claude", "Claude Code"},
	{"antigravity", "Antigravity"},
	{"ollama", "Ollama"},
	{"vllm", "vLLM"},
	{"tritonserver", "Triton"},
	{"torchrun", "PyTorch DDP"},
	{"deepspeed", "DeepSpeed"},
	{"nemo", "NeMo"},
	{"jupyter", "Jupyter"},
	{"stable-diffusion", "SD"},
	{"comfyui", "ComfyUI"},
	{"text-generation", "TGI"},
	{"llama.cpp", "llama.cpp"},
	{"whisper", "Whisper"},
	{"diffusers", "Diffusers"},
	{"transformers", "HF Transformers"},
	{"accelerate", "HF Accelerate"},
	{"fairseq", "Fairseq"},
	{"megatron", "Megatron-LM"},
}

// ProcessName labels a process from its argv. Known substrings win, then
// interpreter module or script extraction, then comm, then the argv[0] basename.
func ProcessName(argv []string, comm string) string {
	return friendly(processNames, argv, comm)
}

// GPUProcessName is ProcessName with the accelerator workload table.
func GPUProcessName(argv []string, comm string) string {
	return friendly(gpuProcessNames, argv, comm)
}

func friendly(rules []nameRule, argv []string, comm string) string {
	argv = nonEmpty(argv)
	line := strings.ToLower(strings.Join(argv, " "))
	if line != "" {
		for _, r := range rules {
			if strings.Contains(line, r.substr) {
				return r.label
			}
		}
	}
	if len(argv) > 0 {
		if label, ok := interpreterLabel(argv); ok {
			return label
		}
	}
	if comm != "" {
		return comm
	}
	if len(argv) > 0 {
		return path.Base(argv[0])
	}
	return "unknown"
}

func interpreterLabel(argv []string) (string, bool) {
	base := path.Base(argv[0])
	switch {
	case strings.HasPrefix(base, "python"):
		for i, a := range argv {
			if a == "-m" && i+1 < len(argv) {
				mod, _, _ := strings.Cut(argv[i+1], ".")
				return "py:" + mod, true
			}
		}
		for _, a := range argv[1:] {
			if strings.HasPrefix(a, "-") {
				continue
			}
			return "py:" + strings.TrimSuffix(path.Base(a), ".py"), true
		}
		return "Python", true
	case base == "node" || base == "nodejs":
		for _, a := range argv[1:] {
			if strings.HasPrefix(a, "-") {
				continue
			}
			return "node:" + path.Base(a), true
		}
		return "Node.js", true
	}
	return "", false
}

func nonEmpty(argv []string) []string {
	out := argv[:0:0]
	for _, a := range argv {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
