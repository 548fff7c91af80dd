// Package platform translates the host operating system and CPU architecture
// into the target-triple tokens used in release archive names.
//
// Release artifacts follow toolchain-style triples (x86_64-apple-darwin,
// aarch64-unknown-linux-gnu), which differ from what uname reports, so every
// supported value is mapped explicitly and anything else fails loudly.
package platform
