package hardware

import "strings"

// vendorPattern maps a lowercase name substring to a manufacturer.
type vendorPattern struct {
	token  string
	vendor string
}

// Classifier decides CPU-vs-GPU class and manufacturer from a device name.
// The token tables are fixed at construction; a Classifier is immutable and
// safe for concurrent use.
type Classifier struct {
	strongCPU  []string
	strongGPU  []string
	genericGPU []string
	cpuFall    []string
	cpuVendors []vendorPattern
	gpuVendors []vendorPattern
}

// NewClassifier builds a Classifier with the known CPU/GPU vendor and
// family token tables.
func NewClassifier() *Classifier {
	return &Classifier{
		// Product lines exclusive to CPUs. These win even when the string
		// also contains a GPU-sounding word: a CPU model can embed its
		// integrated GPU ("Ryzen 7 8845HS w/ Radeon 780M Graphics").
		strongCPU: []string{
			"ryzen", "epyc", "threadripper", "athlon", "opteron",
			"xeon", "core i", "core ultra", "pentium", "celeron",
			"snapdragon", "processor",
		},
		// Consumer/workstation GPU family names.
		strongGPU: []string{
			"geforce", "rtx", "gtx", "quadro", "titan",
			"radeon rx", "radeon pro", "radeon vii",
			"arc a", "arc b", "iris",
		},
		genericGPU: []string{"graphics", "gpu", "radeon"},
		cpuFall:    []string{"intel", "amd", "apple", "arm", "qualcomm"},
		cpuVendors: []vendorPattern{
			{"intel", "Intel"},
			{"amd", "AMD"},
			{"ryzen", "AMD"},
			{"epyc", "AMD"},
			{"xeon", "Intel"},
			{"core i", "Intel"},
			{"apple", "Apple"},
			{"snapdragon", "Qualcomm"},
			{"qualcomm", "Qualcomm"},
		},
		gpuVendors: []vendorPattern{
			{"nvidia", "NVIDIA"},
			{"geforce", "NVIDIA"},
			{"rtx", "NVIDIA"},
			{"gtx", "NVIDIA"},
			{"quadro", "NVIDIA"},
			{"titan", "NVIDIA"},
			{"radeon", "AMD"},
			{"amd", "AMD"},
			{"arc", "Intel"},
			{"iris", "Intel"},
			{"intel", "Intel"},
			{"apple", "Apple"},
		},
	}
}

// Classify resolves (manufacturer, isCPU) for a device name. classHint is
// an optional explicit class or compute framework ("cpu", "CUDA", "VULKAN",
// ...); a "cpu" hint forces CPU classification regardless of the name, any
// other non-empty hint biases the ambiguous default to GPU. Rule order is
// fixed: explicit hint, strong CPU tokens, strong GPU tokens, generic GPU
// words, CPU vendor fallback, then the default (GPU if a framework hint is
// present, CPU otherwise).
func (c *Classifier) Classify(name, classHint string) (string, bool) {
	lower := strings.ToLower(Normalize(name))

	isCPU := c.classify(lower, classHint)
	return c.manufacturer(lower, isCPU), isCPU
}

func (c *Classifier) classify(lower, classHint string) bool {
	if strings.EqualFold(classHint, "cpu") {
		return true
	}
	for _, tok := range c.strongCPU {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	for _, tok := range c.strongGPU {
		if strings.Contains(lower, tok) {
			return false
		}
	}
	for _, tok := range c.genericGPU {
		if strings.Contains(lower, tok) {
			return false
		}
	}
	for _, tok := range c.cpuFall {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	// Nothing matched. A compute framework hint means the caller got this
	// string from a GPU selection list; otherwise a bare model string on a
	// benchmark machine is most often the CPU.
	return classHint == ""
}

func (c *Classifier) manufacturer(lower string, isCPU bool) string {
	table := c.gpuVendors
	if isCPU {
		table = c.cpuVendors
	}
	for _, p := range table {
		if strings.Contains(lower, p.token) {
			return p.vendor
		}
	}
	return "Unknown"
}
