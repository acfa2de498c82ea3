// Package wgpu declares the WebGPU device descriptor family as layout tables
// and offers typed helpers on top of the generic binding engine.
//
// The structs mirror webgpu.h as shipped with wgpu-native:
//
//	WGPUChainedStruct      next, sType
//	WGPUQueueDescriptor    nextInChain, label
//	WGPULimits             32 limits (uint32 and uint64)
//	WGPURequiredLimits     nextInChain, limits (by value)
//	WGPUDeviceDescriptor   nextInChain, label, requiredFeatureCount,
//	                       requiredFeatures, requiredLimits, defaultQueue (by value),
//	                       deviceLostCallback, deviceLostUserdata
//
// On LP64 the device descriptor is 72 bytes with defaultQueue at offset 40.
package wgpu
