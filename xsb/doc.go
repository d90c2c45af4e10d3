// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

/*
Package xsb patches sound bank (XSB) control bytes and keeps the bank checksum
consistent.

The checksum is a reflected CCITT CRC-16 over every byte from offset 18 to the
end of the bank, stored complemented and little-endian at offset 8. Volume
control bytes live at 0xCD (sound) and 0xDB (track).

	sum, err := xsb.PatchFile("bgm.xsb", xsb.Patch{Track: xsb.Volume(0x40)})
*/
package xsb
