// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package offline classifies network failures and tracks offline state.
//
// # Key Types
//
//   - Flag: A mutex-guarded offline indicator owned by the session store
//   - IsConnectivityError: Reports whether an error means the network is
//     unreachable rather than the request being at fault
//
// The flag is explicit state passed to whoever needs it. There is no
// package-level mode; two stores can disagree about being offline.
package offline
