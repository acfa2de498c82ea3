package wgpu

import (
	"context"

	nativelayout "github.com/wippyai/native-layout"
	"github.com/wippyai/native-layout/binding"
	"github.com/wippyai/native-layout/invoke"
	"github.com/wippyai/native-layout/layout"
	"github.com/wippyai/native-layout/memory"
)

// maxLabel bounds the scan for a label's NUL terminator.
const maxLabel = 4096

// Limits is WGPULimits.
type Limits struct {
	MaxTextureDimension1D                     uint32
	MaxTextureDimension2D                     uint32
	MaxTextureDimension3D                     uint32
	MaxTextureArrayLayers                     uint32
	MaxBindGroups                             uint32
	MaxBindGroupsPlusVertexBuffers            uint32
	MaxBindingsPerBindGroup                   uint32
	MaxDynamicUniformBuffersPerPipelineLayout uint32
	MaxDynamicStorageBuffersPerPipelineLayout uint32
	MaxSampledTexturesPerShaderStage          uint32
	MaxSamplersPerShaderStage                 uint32
	MaxStorageBuffersPerShaderStage           uint32
	MaxStorageTexturesPerShaderStage          uint32
	MaxUniformBuffersPerShaderStage           uint32
	MaxUniformBufferBindingSize               uint64
	MaxStorageBufferBindingSize               uint64
	MinUniformBufferOffsetAlignment           uint32
	MinStorageBufferOffsetAlignment           uint32
	MaxVertexBuffers                          uint32
	MaxBufferSize                             uint64
	MaxVertexAttributes                       uint32
	MaxVertexBufferArrayStride                uint32
	MaxInterStageShaderComponents             uint32
	MaxInterStageShaderVariables              uint32
	MaxColorAttachments                       uint32
	MaxColorAttachmentBytesPerSample          uint32
	MaxComputeWorkgroupStorageSize            uint32
	MaxComputeInvocationsPerWorkgroup         uint32
	MaxComputeWorkgroupSizeX                  uint32
	MaxComputeWorkgroupSizeY                  uint32
	MaxComputeWorkgroupSizeZ                  uint32
	MaxComputeWorkgroupsPerDimension          uint32
}

// QueueDescriptor is the Go form of WGPUQueueDescriptor.
type QueueDescriptor struct {
	Label string
}

// DeviceDescriptor is the Go form of WGPUDeviceDescriptor. Chained
// extension structs are not modelled; nextInChain is always written as null.
type DeviceDescriptor struct {
	RequiredLimits     *Limits
	Label              string
	DefaultQueue       QueueDescriptor
	RequiredFeatures   []FeatureName
	DeviceLostCallback nativelayout.Address
	DeviceLostUserdata nativelayout.Address
}

// Bindings holds the bound descriptor family for one platform.
type Bindings struct {
	Chained        *binding.Struct
	Queue          *binding.Struct
	Limits         *binding.Struct
	RequiredLimits *binding.Struct
	Device         *binding.Struct

	label, featureCount, features, requiredLimits *binding.Field
	defaultQueue, callback, userdata              *binding.Field
	queueLabel, limits                            *binding.Field
}

// Register adds the descriptor family to reg and binds it.
func Register(reg *layout.Registry) (*Bindings, error) {
	if _, err := reg.RegisterAll(Decls()...); err != nil {
		return nil, err
	}

	b := &Bindings{
		Chained:        binding.MustBind(reg, ChainedStructName),
		Queue:          binding.MustBind(reg, QueueDescriptorName),
		Limits:         binding.MustBind(reg, LimitsName),
		RequiredLimits: binding.MustBind(reg, RequiredLimitsName),
		Device:         binding.MustBind(reg, DeviceDescriptorName),
	}
	d := b.Device
	b.label = d.MustField("label")
	b.featureCount = d.MustField("requiredFeatureCount")
	b.features = d.MustField("requiredFeatures")
	b.requiredLimits = d.MustField("requiredLimits")
	b.defaultQueue = d.MustField("defaultQueue")
	b.callback = d.MustField("deviceLostCallback")
	b.userdata = d.MustField("deviceLostUserdata")
	b.queueLabel = b.Queue.MustField("label")
	b.limits = b.RequiredLimits.MustField("limits")
	return b, nil
}

// Write allocates a WGPUDeviceDescriptor and everything it points to in arena.
func (b *Bindings) Write(arena *memory.Arena, d *DeviceDescriptor) (memory.View, error) {
	dev := b.Device
	v, err := dev.Allocate(arena)
	if err != nil {
		return memory.View{}, err
	}

	if err := b.writeLabel(arena, dev, v, b.label, d.Label); err != nil {
		return memory.View{}, err
	}

	if n := len(d.RequiredFeatures); n > 0 {
		feats, err := arena.Allocate(uint64(n)*4, 4)
		if err != nil {
			return memory.View{}, err
		}
		order := dev.Platform().Order()
		for i, f := range d.RequiredFeatures {
			if err := feats.PutUint(uint64(i)*4, 4, uint64(f), order); err != nil {
				return memory.View{}, err
			}
		}
		if err := dev.SetSequence(v, b.featureCount, b.features, feats, 4); err != nil {
			return memory.View{}, err
		}
	}

	if d.RequiredLimits != nil {
		rl, err := b.RequiredLimits.Allocate(arena)
		if err != nil {
			return memory.View{}, err
		}
		lv, err := b.RequiredLimits.Nested(rl, b.limits)
		if err != nil {
			return memory.View{}, err
		}
		if err := b.Limits.Marshal(lv, d.RequiredLimits); err != nil {
			return memory.View{}, err
		}
		if err := dev.Set(v, b.requiredLimits, rl); err != nil {
			return memory.View{}, err
		}
	}

	queue, err := dev.Nested(v, b.defaultQueue)
	if err != nil {
		return memory.View{}, err
	}
	if err := b.writeLabel(arena, b.Queue, queue, b.queueLabel, d.DefaultQueue.Label); err != nil {
		return memory.View{}, err
	}

	if err := dev.SetPointer(v, b.callback, d.DeviceLostCallback); err != nil {
		return memory.View{}, err
	}
	if err := dev.SetPointer(v, b.userdata, d.DeviceLostUserdata); err != nil {
		return memory.View{}, err
	}
	return v, nil
}

func (b *Bindings) writeLabel(arena *memory.Arena, s *binding.Struct, v memory.View, f *binding.Field, label string) error {
	if label == "" {
		return nil
	}
	str, err := arena.AllocateCString(label)
	if err != nil {
		return err
	}
	return s.Set(v, f, str)
}

// Read decodes a WGPUDeviceDescriptor, following its pointers through the
// view's arena.
func (b *Bindings) Read(v memory.View) (*DeviceDescriptor, error) {
	dev := b.Device
	d := &DeviceDescriptor{}

	var err error
	if d.Label, err = b.readLabel(dev, v, b.label); err != nil {
		return nil, err
	}

	seq, err := dev.Sequence(v, b.featureCount, b.features, 4)
	if err != nil {
		return nil, err
	}
	order := dev.Platform().Order()
	for off := uint64(0); off < seq.Len(); off += 4 {
		f, err := seq.Uint(off, 4, order)
		if err != nil {
			return nil, err
		}
		d.RequiredFeatures = append(d.RequiredFeatures, FeatureName(f))
	}

	addr, err := dev.Pointer(v, b.requiredLimits)
	if err != nil {
		return nil, err
	}
	if !addr.IsNull() {
		rl, err := dev.Deref(v, b.requiredLimits, b.RequiredLimits, 1)
		if err != nil {
			return nil, err
		}
		lv, err := b.RequiredLimits.Nested(rl, b.limits)
		if err != nil {
			return nil, err
		}
		d.RequiredLimits = &Limits{}
		if err := b.Limits.Unmarshal(lv, d.RequiredLimits); err != nil {
			return nil, err
		}
	}

	queue, err := dev.Nested(v, b.defaultQueue)
	if err != nil {
		return nil, err
	}
	if d.DefaultQueue.Label, err = b.readLabel(b.Queue, queue, b.queueLabel); err != nil {
		return nil, err
	}

	if d.DeviceLostCallback, err = dev.Pointer(v, b.callback); err != nil {
		return nil, err
	}
	if d.DeviceLostUserdata, err = dev.Pointer(v, b.userdata); err != nil {
		return nil, err
	}
	return d, nil
}

func (b *Bindings) readLabel(s *binding.Struct, v memory.View, f *binding.Field) (string, error) {
	addr, err := s.Pointer(v, f)
	if err != nil || addr.IsNull() {
		return "", err
	}
	return v.Arena().ReadCString(addr, maxLabel)
}

// FireDeviceLost calls the descriptor's device-lost callback through bridge
// with reason, message and the descriptor's userdata. The message is copied
// into the view's arena as a C string. It reports false if no callback is set.
func (b *Bindings) FireDeviceLost(ctx context.Context, bridge *invoke.Bridge, v memory.View, reason DeviceLostReason, message string) (bool, error) {
	fn, err := b.Device.Pointer(v, b.callback)
	if err != nil || fn.IsNull() {
		return false, err
	}
	userdata, err := b.Device.Pointer(v, b.userdata)
	if err != nil {
		return false, err
	}
	msg, err := v.Arena().AllocateCString(message)
	if err != nil {
		return false, err
	}
	if _, err := bridge.Call(ctx, fn, DeviceLostCallback, uint32(reason), msg, userdata); err != nil {
		return true, err
	}
	return true, nil
}
