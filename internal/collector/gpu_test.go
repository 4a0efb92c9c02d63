package collector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housekeeper/internal/model"
	"housekeeper/internal/system"
	"housekeeper/internal/system/systemtest"
)

type fakeGPUReader struct {
	vendor string
	ok     bool
	gpus   []model.GPUInfo
	probes int
}

func (f *fakeGPUReader) Vendor() string { return f.vendor }

func (f *fakeGPUReader) Probe(context.Context) bool {
	f.probes++
	return f.ok
}

func (f *fakeGPUReader) Read(context.Context) []model.GPUInfo { return f.gpus }

func TestGPUCollectorMergesActiveReaders(t *testing.T) {
	nv := &fakeGPUReader{vendor: model.GPUVendorNVIDIA, ok: true, gpus: []model.GPUInfo{{Index: 0, Vendor: model.GPUVendorNVIDIA}}}
	amd := &fakeGPUReader{vendor: model.GPUVendorAMD}
	hl := &fakeGPUReader{vendor: model.GPUVendorGaudi, ok: true, gpus: []model.GPUInfo{{Index: 0, Vendor: model.GPUVendorGaudi}, {Index: 1, Vendor: model.GPUVendorGaudi}}}
	c := NewGPUCollector(discardLogger(), nv, amd, hl)

	require.True(t, c.Probe(context.Background()))
	assert.Equal(t, []string{model.GPUVendorNVIDIA, model.GPUVendorGaudi}, c.Vendors(context.Background()))
	assert.Len(t, c.Collect(context.Background()), 3)
	c.Collect(context.Background())
	assert.Equal(t, 1, amd.probes, "probing happens once")
}

func TestGPUCollectorWithoutTools(t *testing.T) {
	c := NewGPUCollector(discardLogger(), &fakeGPUReader{vendor: model.GPUVendorAMD})
	assert.False(t, c.Probe(context.Background()))
	assert.Nil(t, c.Collect(context.Background()))
}

const nvidiaCSV = "--format=csv,noheader,nounits"

func nvidiaRunner() *systemtest.Runner {
	return systemtest.NewRunner().
		Fail(errBoom, "nvidia-smi", "--query-gpu=index,name,utilization.gpu,memory.used,memory.total,temperature.gpu,power.draw,power.limit,fan.speed", nvidiaCSV).
		Script("0, NVIDIA A100-SXM4-80GB, 45, 1024, 81920, 40, 250.50, 400.00\n1, NVIDIA A100-SXM4-80GB, [N/A], 0, 81920, 35, 60.00, 400.00\n",
			"nvidia-smi", "--query-gpu=index,name,utilization.gpu,memory.used,memory.total,temperature.gpu,power.draw,power.limit", nvidiaCSV).
		Script("0, GPU-aaa\n1, GPU-bbb\n", "nvidia-smi", "--query-gpu=index,uuid", "--format=csv,noheader").
		Script("GPU-aaa, 12\nGPU-bbb, 0\n", "nvidia-smi", "--query-gpu=uuid,utilization.encoder", nvidiaCSV).
		Script("GPU-aaa, 3\n", "nvidia-smi", "--query-gpu=uuid,utilization.decoder", nvidiaCSV).
		Script("4242, GPU-aaa, 2048, /usr/bin/python3\n4343, GPU-aaa, 8192, /usr/local/bin/ollama\n5000, GPU-bbb, 100, /opt/app/server\nbad, GPU-bbb, 1, x\n",
			"nvidia-smi", "--query-compute-apps=pid,gpu_uuid,used_gpu_memory,process_name", nvidiaCSV)
}

func TestNVIDIAReaderFallsBackToReducedQuery(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"4242/cmdline": "python3\x00-m\x00vllm.entrypoints.openai.api_server\x00",
	})
	r := NewNVIDIAReader(nvidiaRunner(), system.FS{ProcRoot: root}, discardLogger())
	require.True(t, r.Probe(context.Background()))

	gpus := r.Read(context.Background())
	require.Len(t, gpus, 2)

	g := gpus[0]
	assert.Equal(t, "NVIDIA A100-SXM4-80GB", g.Name)
	assert.Equal(t, "GPU-aaa", g.UUID)
	assert.Equal(t, 45.0, g.UtilPct)
	assert.Equal(t, 1024.0, g.MemUsedMiB)
	assert.Equal(t, 250.5, g.PowerW)
	assert.Equal(t, 400.0, g.PowerLimitW)
	assert.Zero(t, g.FanPct)
	assert.Equal(t, 12.0, g.EncoderPct)
	assert.Equal(t, 3.0, g.DecoderPct)
	require.Len(t, g.Processes, 2)
	assert.Equal(t, model.GPUProcess{PID: 4343, Name: "ollama", MemMiB: 8192}, g.Processes[0])
	assert.Equal(t, "vLLM", g.Processes[1].Name)

	assert.Zero(t, gpus[1].UtilPct)
	assert.Equal(t, "GPU-bbb", gpus[1].UUID)
	require.Len(t, gpus[1].Processes, 1)
	assert.Equal(t, "server", gpus[1].Processes[0].Name)
}

func TestNVIDIAReaderNoBoards(t *testing.T) {
	runner := systemtest.NewRunner().Script("", "nvidia-smi", "--query-gpu=index,uuid", "--format=csv,noheader")
	r := NewNVIDIAReader(runner, system.FS{ProcRoot: t.TempDir()}, discardLogger())
	assert.Nil(t, r.Read(context.Background()))
	assert.Zero(t, runner.CallCount("nvidia-smi", "--query-gpu=index,uuid", "--format=csv,noheader"))
}

const rocmJSON = `{
  "card0": {
    "Card series": "Instinct MI300X",
    "GPU use (%)": "87",
    "VRAM Total Memory (B)": "206141652992",
    "VRAM Total Used Memory (B)": "1073741824",
    "Temperature (Sensor edge) (C)": "52.0",
    "Average Graphics Package Power (W)": "550.0",
    "Max Graphics Package Power (W)": "750.0",
    "Fan speed (%)": "N/A"
  },
  "card1": {
    "GPU use (%)": 5,
    "VRAM Total Memory (B)": "8192"
  },
  "system": {"Driver version": "6.7.0"}
}`

func TestParseROCmJSON(t *testing.T) {
	gpus, err := ParseROCmJSON([]byte(rocmJSON))
	require.NoError(t, err)
	require.Len(t, gpus, 2)

	assert.Equal(t, model.GPUInfo{
		Index:       0,
		Vendor:      model.GPUVendorAMD,
		Name:        "Instinct MI300X",
		UtilPct:     87,
		MemUsedMiB:  1024,
		MemTotalMiB: 196592,
		TempC:       52,
		PowerW:      550,
		PowerLimitW: 750,
	}, gpus[0])

	assert.Equal(t, "AMD GPU 1", gpus[1].Name)
	assert.Equal(t, 5.0, gpus[1].UtilPct)
	assert.Equal(t, 8192.0, gpus[1].MemTotalMiB, "small values are already MiB")
}

func TestParseROCmJSONInvalid(t *testing.T) {
	_, err := ParseROCmJSON([]byte("WARNING: no cards"))
	assert.Error(t, err)

	gpus, err := ParseROCmJSON(nil)
	assert.NoError(t, err)
	assert.Empty(t, gpus)
}

const rocmCSV = "device,GPU use (%),Temperature (Sensor edge) (C),Average Socket Power (W)\ncard0,33,45.0,120.0\n"

func TestAMDReaderFallsBackToCSV(t *testing.T) {
	runner := systemtest.NewRunner().
		Script("not json", "rocm-smi", "--showuse", "--showmeminfo", "vram", "--showtemp", "--showpower", "--showfan", "--json").
		Script(rocmCSV, "rocm-smi", "--showuse", "--showmemuse", "--showtemp", "--showpower", "--csv")
	r := NewAMDReader(runner, discardLogger())
	require.True(t, r.Probe(context.Background()))

	gpus := r.Read(context.Background())
	require.Len(t, gpus, 1)
	assert.Equal(t, "card0", gpus[0].Name)
	assert.Equal(t, 33.0, gpus[0].UtilPct)
	assert.Equal(t, 45.0, gpus[0].TempC)
	assert.Equal(t, 120.0, gpus[0].PowerW)
}

func TestParseROCmCSVHeaderOnly(t *testing.T) {
	assert.Nil(t, ParseROCmCSV([]byte("device,GPU use (%)\n")))
}

func TestParseGaudiCSV(t *testing.T) {
	gpus := ParseGaudiCSV([]byte("0, HL-225, 17, 2048, 98304, 38, 180\n1, , 0, 0, 98304, 30, 90\n"))
	require.Len(t, gpus, 2)
	assert.Equal(t, model.GPUInfo{
		Index:       0,
		Vendor:      model.GPUVendorGaudi,
		Name:        "HL-225",
		UtilPct:     17,
		MemUsedMiB:  2048,
		MemTotalMiB: 98304,
		TempC:       38,
		PowerW:      180,
	}, gpus[0])
	assert.Equal(t, "Gaudi", gpus[1].Name)
}

const hlSMITable = `+-----------------------------------------------------------------------------+
| HL-SMI Version:                              hl-1.15.0-fw-48.0.1.0          |
+-------------------------------+----------------------+----------------------+
| AIP  Name                     | Bus-Id               | Volatile Uncor-Events|
|===============================+======================+======================|
|   0  HL-225                   |
|   1  HL-225                   |
+-------------------------------+----------------------+----------------------+
`

func TestGaudiReaderFallsBackToTable(t *testing.T) {
	runner := systemtest.NewRunner().
		Script("", "hl-smi", "-Q", "index,name,utilization.aip,memory.used,memory.total,temperature.aip,power.draw", "-f", "csv,noheader,nounits").
		Script(hlSMITable, "hl-smi")
	r := NewGaudiReader(runner, discardLogger())
	require.True(t, r.Probe(context.Background()))

	gpus := r.Read(context.Background())
	require.Len(t, gpus, 2)
	assert.Equal(t, 1, gpus[1].Index)
	assert.Equal(t, "HL-225", gpus[1].Name)
	assert.Zero(t, gpus[1].UtilPct)
}

const ioregAccelerators = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<array>
	<dict>
		<key>IOClass</key>
		<string>AppleParavirtGPU</string>
	</dict>
	<dict>
		<key>model</key>
		<string>Apple M2 Pro</string>
		<key>gpu-core-count</key>
		<integer>19</integer>
		<key>PerformanceStatistics</key>
		<dict>
			<key>Device Utilization %</key>
			<integer>37</integer>
			<key>Renderer Utilization %</key>
			<integer>35</integer>
			<key>Tiler Utilization %</key>
			<integer>12</integer>
			<key>In use system memory</key>
			<integer>536870912</integer>
			<key>Alloc system memory</key>
			<integer>2147483648</integer>
		</dict>
	</dict>
</array>
</plist>
`

func TestAppleReaderDecodesIOReg(t *testing.T) {
	runner := systemtest.NewRunner().
		Script(ioregAccelerators, "ioreg", "-r", "-d", "1", "-w", "0", "-c", "IOAccelerator", "-a")
	r := NewAppleReader(runner, discardLogger())
	require.True(t, r.Probe(context.Background()))

	gpus := r.Read(context.Background())
	require.Len(t, gpus, 1)
	assert.Equal(t, model.GPUInfo{
		Index:       1,
		Vendor:      model.GPUVendorApple,
		Name:        "Apple M2 Pro",
		UtilPct:     37,
		RendererPct: 35,
		TilerPct:    12,
		MemUsedMiB:  512,
		MemTotalMiB: 2048,
		Cores:       19,
	}, gpus[0])
	assert.Equal(t, 25.0, gpus[0].MemPct())
}

func TestAppleReaderWithoutStatistics(t *testing.T) {
	runner := systemtest.NewRunner().
		Fail(assert.AnError, "ioreg", "-r", "-d", "1", "-w", "0", "-c", "IOAccelerator", "-a")
	r := NewAppleReader(runner, discardLogger())
	assert.False(t, r.Probe(context.Background()))

	_, err := ParseIORegAccelerators([]byte("not a plist"))
	assert.Error(t, err)
}
