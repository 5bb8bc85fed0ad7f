package sqlinline

const QEnsureVideoJobs = `--sql 7d1f0c2e-5a8b-4f6e-9c3d-2b1a0e9f8d7c
create table if not exists video_jobs (
  id             text primary key,
  user_id        text not null default '',
  prompt         text not null,
  model          text not null default '',
  status         text not null,
  result_url     text not null default '',
  failure_reason text not null default '',
  created_at     timestamptz not null default now(),
  updated_at     timestamptz not null default now()
);
`

const QInsertVideoJob = `--sql c64c96de-6ba5-4b47-94f9-d811423d0235
insert into video_jobs (id, user_id, prompt, model, status)
values ($1, $2, $3, $4, $5)
on conflict (id) do nothing;
`

// QUpdateVideoJobStatus never moves a job out of a terminal status.
const QUpdateVideoJobStatus = `--sql 4f55a9b7-4e9f-4e45-a3b3-5a532d21d9db
update video_jobs
set status = $2,
    result_url = $3,
    failure_reason = $4,
    updated_at = now()
where id = $1
  and status not in ('succeeded', 'failed', 'canceled');
`

const QSelectVideoJob = `--sql 2caa5b21-4c2b-4b72-8a36-7d3d0f9b77a1
select id, user_id, prompt, model, status, result_url, failure_reason, created_at, updated_at
from video_jobs
where id = $1;
`
