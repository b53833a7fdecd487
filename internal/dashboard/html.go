package dashboard

const dashboardHTML = `<!DOCTYPE html>
<html lang="id">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}} · Dashboard</title>
    <link rel="alternate" type="application/rss+xml" title="{{.Title}}" href="/rss">
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body { font-family: 'Inter', -apple-system, system-ui, sans-serif; background: #0f172a; color: #e2e8f0; min-height: 100vh; }
        .header { background: linear-gradient(135deg, #1e293b, #334155); padding: 1.5rem 2rem; border-bottom: 1px solid #475569; display: flex; justify-content: space-between; align-items: center; gap: 1rem; }
        .header h1 { font-size: 1.5rem; background: linear-gradient(135deg, #38bdf8, #818cf8); background-clip: text; -webkit-background-clip: text; -webkit-text-fill-color: transparent; }
        .header .actions { display: flex; gap: 0.75rem; align-items: center; }
        .status { padding: 0.5rem 1rem; border-radius: 9999px; font-size: 0.875rem; font-weight: 600; }
        .status.healthy { background: #166534; color: #4ade80; }
        .status.error { background: #991b1b; color: #fca5a5; }
        .status.running { background: #854d0e; color: #fde047; }
        button { background: #38bdf8; color: #0f172a; border: 0; border-radius: 8px; padding: 0.5rem 1rem; font-weight: 600; cursor: pointer; }
        button:disabled { opacity: 0.5; cursor: default; }
        a { color: #38bdf8; text-decoration: none; }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 1rem; padding: 2rem 2rem 0; }
        .card { background: #1e293b; border: 1px solid #334155; border-radius: 12px; padding: 1.25rem; }
        .card .label { font-size: 0.75rem; text-transform: uppercase; letter-spacing: 0.05em; color: #94a3b8; margin-bottom: 0.5rem; }
        .card .value { font-size: 1.5rem; font-weight: 700; color: #f1f5f9; }
        .card .sub { font-size: 0.8rem; color: #64748b; margin-top: 0.25rem; }
        .panels { display: grid; grid-template-columns: 2fr 1fr; gap: 1rem; padding: 1rem 2rem 2rem; }
        .panel { background: #1e293b; border: 1px solid #334155; border-radius: 12px; padding: 1.25rem; overflow: hidden; }
        .panel h2 { font-size: 1rem; color: #94a3b8; margin-bottom: 1rem; }
        .article { padding: 0.75rem 0; border-bottom: 1px solid #334155; }
        .article .meta { font-size: 0.75rem; color: #64748b; margin-top: 0.25rem; }
        .article p { font-size: 0.85rem; color: #cbd5e1; margin-top: 0.25rem; }
        .log { font-family: ui-monospace, monospace; font-size: 0.75rem; padding: 0.25rem 0; }
        .log.info { color: #94a3b8; } .log.success { color: #4ade80; } .log.warn { color: #fbbf24; } .log.error { color: #f87171; }
        form.settings { display: grid; gap: 0.5rem; margin-bottom: 1.5rem; }
        form.settings label { font-size: 0.75rem; color: #94a3b8; }
        form.settings input { background: #0f172a; color: #e2e8f0; border: 1px solid #475569; border-radius: 6px; padding: 0.4rem; }
        .footer { text-align: center; color: #475569; font-size: 0.75rem; padding-bottom: 1.5rem; }
        @media (max-width: 900px) { .panels { grid-template-columns: 1fr; } }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Title}}</h1>
        <div class="actions">
            <a href="/rss">RSS</a>
            <button id="scrape">Scrape now</button>
            <span id="health" class="status healthy">…</span>
        </div>
    </div>

    <div class="grid">
        <div class="card"><div class="label">Articles</div><div class="value" id="article_count">0</div></div>
        <div class="card"><div class="label">Interval</div><div class="value" id="interval">-</div><div class="sub" id="spec"></div></div>
        <div class="card"><div class="label">Next run</div><div class="value" id="next_run">-</div></div>
        <div class="card"><div class="label">Last run</div><div class="value" id="last_status">-</div><div class="sub" id="last_detail"></div></div>
        <div class="card"><div class="label">Uptime</div><div class="value" id="uptime">-</div><div class="sub" id="runtime"></div></div>
        <div class="card"><div class="label">Memory</div><div class="value" id="heap">-</div><div class="sub" id="goroutines"></div></div>
    </div>

    <div class="panels">
        <div class="panel">
            <h2>Latest articles</h2>
            <div id="articles"></div>
        </div>
        <div class="panel">
            <h2>Settings</h2>
            <form class="settings" id="settings">
                <label for="updateInterval">Update interval (minutes)</label>
                <input id="updateInterval" name="updateInterval" type="number" min="1">
                <label for="maxArticles">Max articles</label>
                <input id="maxArticles" name="maxArticles" type="number" min="1">
                <label for="sourceUrl">Source URL</label>
                <input id="sourceUrl" name="sourceUrl" type="url">
                <button type="submit">Save</button>
            </form>
            <h2>Activity</h2>
            <div id="logs"></div>
        </div>
    </div>

    <div class="footer">newsrelay {{.Version}}</div>

    <script>
        const $ = id => document.getElementById(id);
        const esc = s => String(s ?? '').replace(/[&<>"']/g, c => ({'&':'&amp;','<':'&lt;','>':'&gt;','"':'&quot;',"'":'&#39;'}[c]));
        const fmtTime = t => t ? new Date(t).toLocaleString() : '-';

        async function getJSON(path) {
            const r = await fetch(path);
            if (!r.ok) throw new Error(path + ': ' + r.status);
            return r.json();
        }

        async function refreshStatus() {
            const s = await getJSON('/api/status');
            const h = $('health');
            h.className = 'status ' + s.health;
            h.textContent = s.health;
            $('article_count').textContent = s.article_count;
            $('interval').textContent = s.interval_minutes + 'm';
            $('spec').textContent = s.spec;
            $('next_run').textContent = s.next_run ? new Date(s.next_run).toLocaleTimeString() : '-';
            $('scrape').disabled = s.state === 'running';
            if (s.last_run) {
                $('last_status').textContent = s.last_run.status;
                $('last_detail').textContent = s.last_run.added + ' new · ' + fmtTime(s.last_run.started_at);
            }
        }

        async function refreshArticles() {
            const list = await getJSON('/api/articles?limit=20');
            $('articles').innerHTML = list.map(a =>
                '<div class="article"><a href="' + esc(a.url) + '" target="_blank" rel="noopener">' + esc(a.title) + '</a>' +
                '<div class="meta">' + esc(a.category) + ' · ' + esc(a.published_date) + '</div>' +
                (a.excerpt ? '<p>' + esc(a.excerpt) + '</p>' : '') + '</div>').join('');
        }

        async function refreshLogs() {
            const logs = await getJSON('/api/logs?limit=30');
            $('logs').innerHTML = logs.map(l =>
                '<div class="log ' + esc(l.level) + '">' + esc(new Date(l.timestamp).toLocaleTimeString()) + ' ' + esc(l.message) + '</div>').join('');
        }

        async function refreshStats() {
            const s = await getJSON('/api/stats');
            $('uptime').textContent = s.uptime;
            $('runtime').textContent = s.go_version + ' · ' + s.store;
            $('heap').textContent = humanize(s.heap_alloc_bytes);
            $('goroutines').textContent = s.goroutines + ' goroutines · ' + s.num_gc + ' GC';
        }

        async function loadSettings() {
            const list = await getJSON('/api/settings');
            list.forEach(s => { const el = $(s.key); if (el) el.value = s.value; });
        }

        $('settings').addEventListener('submit', async ev => {
            ev.preventDefault();
            for (const key of ['updateInterval', 'maxArticles', 'sourceUrl']) {
                const r = await fetch('/api/settings', {
                    method: 'PUT',
                    headers: {'Content-Type': 'application/json'},
                    body: JSON.stringify({key, value: $(key).value}),
                });
                if (!r.ok) { alert((await r.json()).error); return; }
            }
            refresh();
        });

        $('scrape').addEventListener('click', async () => {
            $('scrape').disabled = true;
            await fetch('/api/scrape', {method: 'POST'});
            refresh();
        });

        function humanize(b) { const u=['B','KB','MB','GB']; let i=0; while(b>=1024&&i<u.length-1){b/=1024;i++;} return b.toFixed(1)+' '+u[i]; }

        async function refresh() {
            try { await Promise.all([refreshStatus(), refreshArticles(), refreshLogs(), refreshStats()]); } catch(e) {}
        }
        loadSettings().catch(() => {});
        setInterval(refresh, {{.RefreshMS}});
        refresh();
    </script>
</body>
</html>`
