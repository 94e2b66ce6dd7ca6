package schema

import "strings"

// BlenderDeviceRun groups the scene results rendered on one device.
type BlenderDeviceRun struct {
	HWID       string
	DeviceName string
	DeviceSlug string
	Framework  string
	IsCPU      bool
	Scenes     map[string]float64 // scene name -> samples per minute
}

// BlenderPayload is the canonical view of a blender benchmark document.
type BlenderPayload struct {
	Meta    *Meta
	Devices []BlenderDeviceRun
}

// blenderScenes are the scene keys the unified format reports.
var blenderScenes = []string{"classroom", "junkshop", "monster"}

// ParseBlender projects a blender payload in the unified shape (cpu scene
// block + gpus list) or the legacy shape (results.device_runs with
// device_framework / scene_results) onto BlenderPayload.
func ParseBlender(doc map[string]any) *BlenderPayload {
	doc = Unwrap(doc)
	out := &BlenderPayload{}
	if doc == nil {
		return out
	}
	if m, ok := asMap(doc["meta"]); ok {
		out.Meta = ParseMeta(m)
	}

	unified := false
	if cpu, ok := asMap(doc["cpu"]); ok {
		unified = true
		run := BlenderDeviceRun{IsCPU: true, Scenes: sceneBlock(cpu)}
		if len(run.Scenes) > 0 {
			out.Devices = append(out.Devices, run)
		}
	}
	if gpus, ok := asSlice(doc["gpus"]); ok {
		unified = true
		for _, raw := range gpus {
			entry, ok := asMap(raw)
			if !ok {
				continue
			}
			run := BlenderDeviceRun{
				HWID:       stringField(entry, "hw_id"),
				DeviceName: stringField(entry, "device_name"),
				DeviceSlug: stringField(entry, "device_slug"),
				Framework:  stringField(entry, "framework"),
			}
			if scenes, ok := asMap(entry["scenes"]); ok {
				run.Scenes = sceneBlock(scenes)
			}
			out.Devices = append(out.Devices, run)
		}
	}
	if unified {
		return out
	}

	// Legacy shape: one device_runs entry per device with scene_results.
	if runs, ok := asSlice(doc["device_runs"]); ok {
		for _, raw := range runs {
			entry, ok := asMap(raw)
			if !ok {
				continue
			}
			run := BlenderDeviceRun{
				DeviceName: stringField(entry, "device_name"),
				DeviceSlug: stringField(entry, "device_slug"),
				Framework:  stringField(entry, "device_framework"),
				Scenes:     map[string]float64{},
			}
			run.IsCPU = strings.EqualFold(run.Framework, "cpu")
			if scenes, ok := asMap(entry["scene_results"]); ok {
				for scene, rawResult := range scenes {
					result, ok := asMap(rawResult)
					if !ok {
						continue
					}
					if spm, ok := asFloat(result["samples_per_minute"]); ok {
						run.Scenes[scene] = spm
					}
				}
			}
			out.Devices = append(out.Devices, run)
		}
	}
	return out
}

// sceneBlock reads the unified scene map, skipping absent or non-numeric
// scene values.
func sceneBlock(block map[string]any) map[string]float64 {
	scenes := map[string]float64{}
	for _, scene := range blenderScenes {
		if spm, ok := asFloat(block[scene]); ok {
			scenes[scene] = spm
		}
	}
	return scenes
}
