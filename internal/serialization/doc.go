// Package serialization saves and loads module state dicts in the SafeTensors
// format, so attention weights can move between runs and to or from PyTorch.
//
//	Format Structure:
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON, tensor name -> {dtype, shape, data_offsets}]
//	  [Tensor data: raw little-endian bytes]
//
// The optional "__metadata__" header entry holds string key/value pairs.
// Supported dtypes are F16, F32 and F64.
//
// Example usage:
//
//	// Save a module
//	if err := serialization.WriteFile("mha.safetensors", mha.StateDict(), nil); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Load it back
//	file, err := serialization.ReadFile("mha.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := mha.LoadStateDict(file.Tensors); err != nil {
//	    log.Fatal(err)
//	}
package serialization
