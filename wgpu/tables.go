package wgpu

import (
	"github.com/wippyai/native-layout/abi"
	"github.com/wippyai/native-layout/invoke"
	"github.com/wippyai/native-layout/layout"
)

// Struct names.
const (
	ChainedStructName    = "WGPUChainedStruct"
	QueueDescriptorName  = "WGPUQueueDescriptor"
	LimitsName           = "WGPULimits"
	RequiredLimitsName   = "WGPURequiredLimits"
	DeviceDescriptorName = "WGPUDeviceDescriptor"
)

// FeatureName is WGPUFeatureName.
type FeatureName uint32

const (
	FeatureUndefined FeatureName = iota
	FeatureDepthClipControl
	FeatureDepth32FloatStencil8
	FeatureTimestampQuery
	FeatureTextureCompressionBC
	FeatureTextureCompressionETC2
	FeatureTextureCompressionASTC
	FeatureIndirectFirstInstance
	FeatureShaderF16
	FeatureRG11B10UfloatRenderable
	FeatureBGRA8UnormStorage
	FeatureFloat32Filterable
)

// DeviceLostReason is WGPUDeviceLostReason.
type DeviceLostReason uint32

const (
	DeviceLostUndefined DeviceLostReason = 0
	DeviceLostDestroyed DeviceLostReason = 1
)

// DeviceLostCallback is
// void (*)(WGPUDeviceLostReason reason, char const *message, void *userdata).
var DeviceLostCallback = invoke.Sig("WGPUDeviceLostCallback", abi.Uint32, abi.Pointer, abi.Pointer)

var limitNames32a = []string{
	"maxTextureDimension1D",
	"maxTextureDimension2D",
	"maxTextureDimension3D",
	"maxTextureArrayLayers",
	"maxBindGroups",
	"maxBindGroupsPlusVertexBuffers",
	"maxBindingsPerBindGroup",
	"maxDynamicUniformBuffersPerPipelineLayout",
	"maxDynamicStorageBuffersPerPipelineLayout",
	"maxSampledTexturesPerShaderStage",
	"maxSamplersPerShaderStage",
	"maxStorageBuffersPerShaderStage",
	"maxStorageTexturesPerShaderStage",
	"maxUniformBuffersPerShaderStage",
}

var limitNames32b = []string{
	"maxVertexAttributes",
	"maxVertexBufferArrayStride",
	"maxInterStageShaderComponents",
	"maxInterStageShaderVariables",
	"maxColorAttachments",
	"maxColorAttachmentBytesPerSample",
	"maxComputeWorkgroupStorageSize",
	"maxComputeInvocationsPerWorkgroup",
	"maxComputeWorkgroupSizeX",
	"maxComputeWorkgroupSizeY",
	"maxComputeWorkgroupSizeZ",
	"maxComputeWorkgroupsPerDimension",
}

func limitFields() []layout.Field {
	u32 := layout.Scalar(abi.Uint32)
	u64 := layout.Scalar(abi.Uint64)

	var fields []layout.Field
	for _, n := range limitNames32a {
		fields = append(fields, layout.F(n, u32))
	}
	fields = append(fields,
		layout.F("maxUniformBufferBindingSize", u64),
		layout.F("maxStorageBufferBindingSize", u64),
		layout.F("minUniformBufferOffsetAlignment", u32),
		layout.F("minStorageBufferOffsetAlignment", u32),
		layout.F("maxVertexBuffers", u32),
		layout.F("maxBufferSize", u64),
	)
	for _, n := range limitNames32b {
		fields = append(fields, layout.F(n, u32))
	}
	return fields
}

// Decls returns the descriptor family in dependency order.
func Decls() []layout.Decl {
	return []layout.Decl{
		{Name: ChainedStructName, Fields: []layout.Field{
			layout.F("next", layout.PointerTo(ChainedStructName)),
			layout.F("sType", layout.Scalar(abi.Uint32)),
		}},
		{Name: QueueDescriptorName, Fields: []layout.Field{
			layout.F("nextInChain", layout.PointerTo(ChainedStructName)),
			layout.F("label", layout.PointerTo("char")),
		}},
		{Name: LimitsName, Fields: limitFields()},
		{Name: RequiredLimitsName, Fields: []layout.Field{
			layout.F("nextInChain", layout.PointerTo(ChainedStructName)),
			layout.F("limits", layout.Nested(LimitsName)),
		}},
		{Name: DeviceDescriptorName, Fields: []layout.Field{
			layout.F("nextInChain", layout.PointerTo(ChainedStructName)),
			layout.F("label", layout.PointerTo("char")),
			layout.F("requiredFeatureCount", layout.Scalar(abi.SizeT)),
			layout.F("requiredFeatures", layout.PointerTo("WGPUFeatureName")),
			layout.F("requiredLimits", layout.PointerTo(RequiredLimitsName)),
			layout.F("defaultQueue", layout.Nested(QueueDescriptorName)),
			layout.F("deviceLostCallback", layout.Func("WGPUDeviceLostCallback")),
			layout.F("deviceLostUserdata", layout.Pointer()),
		}},
	}
}
