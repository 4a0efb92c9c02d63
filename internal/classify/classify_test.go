package classify

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func addrs(s ...string) []netip.Addr {
	out := make([]netip.Addr, len(s))
	for i, a := range s {
		out[i] = netip.MustParseAddr(a)
	}
	return out
}

func TestInterfacePrecedence(t *testing.T) {
	cases := []struct {
		name  string
		iface string
		facts LinkFacts
		want  NetType
	}{
		{"virtual prefix beats default route", "docker0", LinkFacts{DefaultRoute: true}, NetVirtual},
		{"veth", "veth12ab", LinkFacts{}, NetVirtual},
		{"bridge", "br-5f2c", LinkFacts{Addrs: addrs("172.18.0.1")}, NetVirtual},
		{"default route", "eno1", LinkFacts{DefaultRoute: true, Addrs: addrs("10.0.0.5")}, NetWAN},
		{"private address", "enp3s0", LinkFacts{Addrs: addrs("192.168.1.20")}, NetLAN},
		{"ula v6 is private", "enp4s0", LinkFacts{Addrs: addrs("fd00::1")}, NetLAN},
		{"public address", "enp5s0", LinkFacts{Addrs: addrs("203.0.113.9")}, NetWAN},
		{"private wins over public", "enp6s0", LinkFacts{Addrs: addrs("203.0.113.9", "10.1.1.1")}, NetLAN},
		{"link local only falls back", "ib0", LinkFacts{Addrs: addrs("fe80::1")}, NetLAN},
		{"nothing known", "eth9", LinkFacts{}, NetLAN},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Interface(tc.iface, tc.facts))
		})
	}
}

func TestNetTypeOrder(t *testing.T) {
	assert.Less(t, NetWAN.Order(), NetLAN.Order())
	assert.Less(t, NetLAN.Order(), NetVirtual.Order())
	assert.Less(t, NetVirtual.Order(), NetUnknown.Order())
}

func TestProcessName(t *testing.T) {
	cases := []struct {
		argv []string
		comm string
		want string
	}{
		{[]string{"/usr/local/bin/claude"}, "claude", "Claude Code"},
		{[]string{"/usr/bin/python3", "-m", "vllm.entrypoints.api_server"}, "python3", "vLLM"},
		{[]string{"python", "-m", "torch.distributed.launch", "x"}, "python", "py:torch"},
		{[]string{"python3.11", "-u", "train.py", "--lr", "0.01"}, "python3.11", "py:train"},
		{[]string{"python3", "/opt/job/runner"}, "python3", "py:runner"},
		{[]string{"python3"}, "python3", "Python"},
		{[]string{"node", "--inspect", "/srv/app/server.js"}, "node", "node:server.js"},
		{[]string{"nodejs"}, "nodejs", "Node.js"},
		{[]string{"npm", "run", "dev"}, "npm", "npm"},
		{[]string{"npm"}, "npm", "npm"},
		{[]string{"/usr/bin/code"}, "code", "code"},
		{[]string{"/usr/bin/code", "--wait"}, "code", "VS Code"},
		{[]string{"npx"}, "", "npx"},
		{[]string{"/usr/bin/dockerd", "-H", "fd://"}, "dockerd", "Docker"},
		{[]string{"/usr/sbin/sshd", "-D"}, "sshd", "sshd"},
		{nil, "kworker/0:1", "kworker/0:1"},
		{[]string{"/opt/bin/thing"}, "", "thing"},
		{nil, "", "unknown"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ProcessName(tc.argv, tc.comm), "%v", tc.argv)
	}
}

func TestProcessNameTableOrderFirstHitWins(t *testing.T) {
	// "docker" appears before "containerd" in the table.
	assert.Equal(t, "Docker", ProcessName([]string{"containerd-shim", "--namespace", "docker"}, ""))
	// "code-server" must win over "code ".
	assert.Equal(t, "VS Code Server", ProcessName([]string{"code-server", "--bind-addr", "x"}, ""))
}

func TestGPUProcessName(t *testing.T) {
	assert.Equal(t, "Triton", GPUProcessName([]string{"tritonserver", "--model-repository=/m"}, ""))
	assert.Equal(t, "HF Transformers", GPUProcessName([]string{"python", "-m", "transformers.cli"}, ""))
	assert.Equal(t, "py:finetune", GPUProcessName([]string{"python", "finetune.py"}, ""))
}

func TestHwmonCategory(t *testing.T) {
	assert.Equal(t, "CPU", HwmonCategory("k10temp"))
	assert.Equal(t, "NVMe", HwmonCategory("nvme"))
	assert.Equal(t, "Mainboard", HwmonCategory("nct6798"))
	assert.Equal(t, "Other", HwmonCategory("mystery"))
}

func TestIPMISensorGroup(t *testing.T) {
	assert.Equal(t, "DDR", IPMISensorGroup("DDR5_A1 Temp"))
	assert.Equal(t, "VRM", IPMISensorGroup("CPU VRM Temp"))
	assert.Equal(t, "Mainboard", IPMISensorGroup("MB Temp"))
	assert.Equal(t, "Mainboard", IPMISensorGroup("TEMP_CPU"))
	assert.Equal(t, "Other", IPMISensorGroup("LAN Temp"))
}

func TestPCIClass(t *testing.T) {
	assert.Equal(t, PCIStorage, PCIClass(0x010802))
	assert.Equal(t, PCINetwork, PCIClass(0x020000))
	assert.Equal(t, PCIDisplay, PCIClass(0x030200))
	assert.Equal(t, PCIStorage, PCIClass(0x120000))
	assert.Equal(t, PCIOther, PCIClass(0x060400))
	assert.True(t, WantedPCIClass(0x030000))
	assert.False(t, WantedPCIClass(0x060400))
}

func TestNetFS(t *testing.T) {
	assert.True(t, IsNetFS("nfs4"))
	assert.True(t, IsNetFS("fuse.sshfs"))
	assert.False(t, IsNetFS("ext4"))

	assert.Equal(t, "NFS", NetFSLabel("nfs4"))
	assert.Equal(t, "SMB", NetFSLabel("cifs"))
	assert.Equal(t, "Gluster", NetFSLabel("glusterfs"))
	assert.Equal(t, "9P", NetFSLabel("9p"))
	assert.Equal(t, "FUSE.S", NetFSLabel("fuse.sshfs"))
	assert.Equal(t, "SMBFS", NetFSLabel("smbfs"))
}
